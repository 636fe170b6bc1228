package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	mp3Header = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0}, 64)...)
)

func newMediaFixture(t *testing.T) (*fixture, *mediaService) {
	f := newFixture(t)
	f.event(t)
	f.artist(t, "a1", "one@fame.test", nil, nil, 5)
	blobs, err := storage.NewLocalBlobStore(t.TempDir())
	require.NoError(t, err)
	return f, newMediaService(f.repos, blobs, f.cfg, f.log)
}

func TestMediaService_UploadImageToGallery(t *testing.T) {
	_, svc := newMediaFixture(t)
	ctx := context.Background()

	res, err := svc.Upload(ctx, &UploadRequest{
		EventID:  "evt-1",
		ArtistID: "a1",
		Actor:    artistActor("one@fame.test"),
		FileName: "costume.png",
		Body:     bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.Equal(t, models.MediaImage, res.Kind)
	assert.Equal(t, "image/png", res.ContentType)
	assert.True(t, strings.HasPrefix(res.Key, "media/evt-1/a1/"))
	assert.True(t, strings.HasSuffix(res.Key, ".png"))
	assert.Equal(t, "/api/media/"+res.Key, res.URL)
	require.Len(t, res.Artist.GalleryFiles, 1)
	assert.Equal(t, "costume.png", res.Artist.GalleryFiles[0].Name)
	assert.Equal(t, int64(len(pngHeader)), res.Artist.GalleryFiles[0].Size)

	obj, err := svc.Open(ctx, res.Key)
	require.NoError(t, err)
	defer obj.Close()
	assert.Equal(t, "image/png", obj.ContentType)
	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)
}

func TestMediaService_UploadMainTrackSetsDuration(t *testing.T) {
	_, svc := newMediaFixture(t)

	res, err := svc.Upload(context.Background(), &UploadRequest{
		EventID:     "evt-1",
		ArtistID:    "a1",
		Actor:       staff(),
		FileName:    "set.mp3",
		Body:        bytes.NewReader(mp3Header),
		Duration:    212,
		IsMainTrack: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MediaAudio, res.Kind)
	require.Len(t, res.Artist.MusicTracks, 1)
	track := res.Artist.MusicTracks[0]
	assert.Equal(t, "set", track.SongTitle)
	assert.True(t, track.IsMainTrack)
	assert.Equal(t, res.URL, track.FileURL)
	require.NotNil(t, res.Artist.ActualDuration)
	assert.Equal(t, 212, *res.Artist.ActualDuration)
}

func TestMediaService_UploadRejects(t *testing.T) {
	f, svc := newMediaFixture(t)
	f.cfg.Upload.MaxUploadSize = 16
	small := newMediaService(f.repos, svc.blobs, f.cfg, f.log)

	tests := []struct {
		name    string
		svc     *mediaService
		req     UploadRequest
		wantErr error
	}{
		{
			name:    "text file",
			svc:     svc,
			req:     UploadRequest{EventID: "evt-1", ArtistID: "a1", Actor: staff(), Body: strings.NewReader("just some notes")},
			wantErr: &ValidationError{},
		},
		{
			name:    "too large",
			svc:     small,
			req:     UploadRequest{EventID: "evt-1", ArtistID: "a1", Actor: staff(), Body: bytes.NewReader(pngHeader)},
			wantErr: &ValidationError{},
		},
		{
			name:    "empty",
			svc:     svc,
			req:     UploadRequest{EventID: "evt-1", ArtistID: "a1", Actor: staff(), Body: bytes.NewReader(nil)},
			wantErr: &ValidationError{},
		},
		{
			name:    "other artist",
			svc:     svc,
			req:     UploadRequest{EventID: "evt-1", ArtistID: "a1", Actor: artistActor("two@fame.test"), Body: bytes.NewReader(pngHeader)},
			wantErr: ErrForbidden,
		},
		{
			name:    "unknown artist",
			svc:     svc,
			req:     UploadRequest{EventID: "evt-1", ArtistID: "ghost", Actor: staff(), Body: bytes.NewReader(pngHeader)},
			wantErr: ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := tt.svc.Upload(context.Background(), &req)
			require.Error(t, err)
			if _, ok := tt.wantErr.(*ValidationError); ok {
				var verr *ValidationError
				assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	artist, err := f.repos.Artist.GetByID(context.Background(), "evt-1", "a1")
	require.NoError(t, err)
	assert.Empty(t, artist.GalleryFiles)
}

func TestMediaService_OpenOutsideMediaPrefix(t *testing.T) {
	_, svc := newMediaFixture(t)

	for _, key := range []string{"events/evt-1.json", "../secret", "media/evt-1/missing.png"} {
		_, err := svc.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
}
