package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/fame-api/internal/auth"
	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sniffLen is how much of an upload is inspected to detect its type
const sniffLen = 3072

const mediaPrefix = "media/"

// UploadRequest is one media file sent by an artist or stage manager
type UploadRequest struct {
	EventID  string
	ArtistID string
	Actor    *auth.Session
	FileName string
	Body     io.Reader

	// Audio only
	SongTitle   string
	Duration    int // seconds, measured by the uploader
	IsMainTrack bool
	Notes       string
}

// UploadResult describes a stored media file
type UploadResult struct {
	Key         string           `json:"key"`
	URL         string           `json:"url"`
	Kind        models.MediaKind `json:"type"`
	ContentType string           `json:"content_type"`
	Size        int64            `json:"size"`
	Artist      *models.Artist   `json:"artist"`
}

// mediaService is the concrete implementation of MediaService
type mediaService struct {
	repos   *repository.Repositories
	blobs   storage.BlobStore
	maxSize int64
	baseURL string
	log     zerolog.Logger
}

func newMediaService(repos *repository.Repositories, blobs storage.BlobStore, cfg *config.Config, log zerolog.Logger) *mediaService {
	return &mediaService{
		repos:   repos,
		blobs:   blobs,
		maxSize: cfg.Upload.MaxUploadSize,
		baseURL: strings.TrimSuffix(cfg.Storage.PublicURL, "/"),
		log:     log.With().Str("service", "media").Logger(),
	}
}

// Upload stores a file and attaches it to the artist: audio as a music track,
// images and video in the gallery.
func (s *mediaService) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	artist, err := s.repos.Artist.GetByID(ctx, req.EventID, req.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, fmt.Errorf("artist %s: %w", req.ArtistID, ErrNotFound)
	}
	if !canEditArtistMedia(req.Actor, artist) {
		return nil, ErrForbidden
	}
	if req.Duration < 0 {
		return nil, invalid("duration must not be negative")
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(req.Body, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return nil, invalid("file is empty")
	}

	mt := mimetype.Detect(header)
	kind, ok := mediaKind(mt)
	if !ok {
		return nil, invalid(fmt.Sprintf("unsupported file type %s: only audio, image and video files are accepted", mt.String()))
	}

	key := fmt.Sprintf("%s%s/%s/%s%s", mediaPrefix, req.EventID, req.ArtistID, uuid.New().String(), mt.Extension())
	body := io.LimitReader(io.MultiReader(bytes.NewReader(header), req.Body), s.maxSize+1)

	size, err := s.blobs.Save(ctx, key, mt.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}
	if size > s.maxSize {
		s.removeBlob(ctx, key)
		return nil, invalid(fmt.Sprintf("file exceeds the %d byte limit", s.maxSize))
	}

	url := s.baseURL + "/" + key
	ts := now()
	updated, err := s.repos.Artist.Update(ctx, req.EventID, req.ArtistID, func(a *models.Artist) error {
		if kind == models.MediaAudio {
			track := models.MusicTrack{
				SongTitle:   firstNonBlank(req.SongTitle, strings.TrimSuffix(req.FileName, path.Ext(req.FileName)), "Untitled"),
				Duration:    req.Duration,
				FileURL:     url,
				ContentType: mt.String(),
				IsMainTrack: req.IsMainTrack,
				Notes:       req.Notes,
			}
			if track.IsMainTrack {
				for i := range a.MusicTracks {
					a.MusicTracks[i].IsMainTrack = false
				}
				if req.Duration > 0 {
					d := req.Duration
					a.ActualDuration = &d
				}
			}
			a.MusicTracks = append(a.MusicTracks, track)
		} else {
			a.GalleryFiles = append(a.GalleryFiles, models.MediaFile{
				URL:         url,
				Name:        firstNonBlank(req.FileName, path.Base(key)),
				Type:        kind,
				ContentType: mt.String(),
				Size:        size,
				UploadedAt:  ts,
			})
		}
		a.UpdatedAt = ts
		return nil
	})
	if err != nil || updated == nil {
		s.removeBlob(ctx, key)
		if err == nil {
			err = fmt.Errorf("artist %s: %w", req.ArtistID, ErrNotFound)
		}
		return nil, err
	}

	s.log.Info().
		Str("event_id", req.EventID).
		Str("artist_id", req.ArtistID).
		Str("key", key).
		Str("content_type", mt.String()).
		Int64("size", size).
		Msg("Media uploaded")

	return &UploadResult{
		Key:         key,
		URL:         url,
		Kind:        kind,
		ContentType: mt.String(),
		Size:        size,
		Artist:      updated,
	}, nil
}

// Open returns a stored media file for ranged playback
func (s *mediaService) Open(ctx context.Context, key string) (*storage.BlobObject, error) {
	key, err := storage.CleanKey(key)
	if err != nil || !strings.HasPrefix(key, mediaPrefix) {
		return nil, fmt.Errorf("media %s: %w", key, ErrNotFound)
	}

	obj, err := s.blobs.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("media %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if obj.ContentType == "" {
		mt, err := mimetype.DetectReader(obj)
		if err == nil {
			_, err = obj.Seek(0, io.SeekStart)
		}
		if err != nil {
			obj.Close()
			return nil, fmt.Errorf("failed to inspect media: %w", err)
		}
		obj.ContentType = mt.String()
	}
	return obj, nil
}

func (s *mediaService) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to remove media")
	}
}

// mediaKind walks the detected type up to its root to classify it
func mediaKind(mt *mimetype.MIME) (models.MediaKind, bool) {
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "audio/"):
			return models.MediaAudio, true
		case strings.HasPrefix(m.String(), "image/"):
			return models.MediaImage, true
		case strings.HasPrefix(m.String(), "video/"):
			return models.MediaVideo, true
		}
	}
	return "", false
}

func canEditArtistMedia(actor *auth.Session, a *models.Artist) bool {
	if actor == nil {
		return false
	}
	if auth.HasRole(actor.Role, models.RoleStageManager) {
		return auth.CanAccessEvent(actor, a.EventID)
	}
	return ownsArtist(actor, a)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
