// Command liveboard follows an event's live board from a terminal. It keeps a
// WebSocket open to the API and redraws the now / next / on-deck view whenever
// the running order changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/pkg/logger"
	"github.com/spf13/cobra"
)

type options struct {
	apiURL      string
	eventID     string
	date        string
	token       string
	maxAttempts int
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "liveboard",
		Short:        "Follow the live board of a festival event",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "url", "http://localhost:8080", "base URL of the FAME API")
	flags.StringVar(&opts.eventID, "event", "", "event ID to follow")
	flags.StringVar(&opts.date, "date", "", "show date (YYYY-MM-DD), defaults to the first show date")
	flags.StringVar(&opts.token, "token", os.Getenv("FAME_TOKEN"), "session token sent as a bearer token")
	flags.IntVar(&opts.maxAttempts, "max-attempts", realtime.DefaultMaxAttempts, "reconnect attempts before giving up")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	log := logger.New(logger.Options{Level: opts.logLevel, Pretty: true, Service: "liveboard", Out: os.Stderr})

	base, err := url.Parse(strings.TrimRight(opts.apiURL, "/"))
	if err != nil {
		return fmt.Errorf("invalid --url: %w", err)
	}
	wsURL, err := websocketURL(base, opts.eventID)
	if err != nil {
		return err
	}

	header := http.Header{}
	if opts.token != "" {
		header.Set("Authorization", "Bearer "+opts.token)
	}

	board := &boardFetcher{
		client:  &http.Client{Timeout: 10 * time.Second},
		base:    base,
		eventID: opts.eventID,
		date:    opts.date,
		header:  header,
	}
	refresh := func() {
		b, err := board.fetch(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load live board")
			return
		}
		printBoard(out, b)
	}

	client := realtime.NewClient(realtime.ClientConfig{
		URL:         wsURL,
		Header:      header,
		MaxAttempts: opts.maxAttempts,
	}, realtime.Handlers{
		OnConnect: func() {
			fmt.Fprintf(out, "connected to %s\n", opts.eventID)
			refresh()
		},
		OnNotification: func(n realtime.Notification) {
			fmt.Fprintf(out, "[%s] %s: %s\n", strings.ToUpper(string(n.Level)), n.Title, n.Message)
		},
		OnDataUpdate: refresh,
		OnDisconnect: func(err error) {
			fmt.Fprintf(out, "disconnected: %v\n", err)
		},
		OnRetry: func(attempt int, delay time.Duration) {
			fmt.Fprintf(out, "reconnecting in %s (attempt %d/%d)\n", delay, attempt, opts.maxAttempts)
		},
	}, log)

	err = client.Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// websocketURL maps http(s)://host to ws(s)://host/ws?event_id=...
func websocketURL(base *url.URL, eventID string) (string, error) {
	u := *base
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"event_id": {eventID}}.Encode()
	return u.String(), nil
}

type boardFetcher struct {
	client  *http.Client
	base    *url.URL
	eventID string
	date    string
	header  http.Header
}

func (f *boardFetcher) fetch(ctx context.Context) (*models.LiveBoard, error) {
	u := *f.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/events/" + url.PathEscape(f.eventID) + "/live-board"
	if f.date != "" {
		u.RawQuery = url.Values{"date": {f.date}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range f.header {
		req.Header[k] = v
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool              `json:"success"`
		Data    *models.LiveBoard `json:"data"`
		Error   string            `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode live board: %w", err)
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, fmt.Errorf("live board: %s (%d)", envelope.Error, resp.StatusCode)
	}
	return envelope.Data, nil
}

func printBoard(w io.Writer, b *models.LiveBoard) {
	fmt.Fprintf(w, "\n=== %s  %s ===\n", b.EventID, b.Date)
	if b.Emergency != nil {
		fmt.Fprintf(w, "!!! %s: %s\n", strings.ToUpper(string(b.Emergency.EmergencyCode)), b.Emergency.Message)
	}
	fmt.Fprintf(w, "NOW      %s\n", itemLine(b.Current))
	fmt.Fprintf(w, "NEXT     %s\n", itemLine(b.NextOnStage))
	fmt.Fprintf(w, "ON DECK  %s\n", itemLine(b.NextOnDeck))
	for _, item := range b.Upcoming {
		fmt.Fprintf(w, "         %s\n", itemLine(&item))
	}
	fmt.Fprintf(w, "completed: %d\n", b.Completed)
}

func itemLine(item *models.ShowItem) string {
	if item == nil {
		return "-"
	}
	return fmt.Sprintf("#%d %s (%s, %s)", item.PerformanceOrder, item.Title, item.Type,
		strings.ReplaceAll(string(item.PerformanceStatus), "_", " "))
}
