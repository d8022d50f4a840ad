// Package sources fetches raw corpus records from the upstream JSON feeds.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/venueqa/venueqa/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Fetcher pulls raw records over HTTP. Retrying is the caller's concern;
// each Fetch is a single bounded attempt.
type Fetcher struct {
	urls       map[domain.EntityType]string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// Config holds source feed settings.
type Config struct {
	ConferenceURL string
	JournalURL    string
	Timeout       time.Duration
	Logger        *zap.Logger
}

// New creates a source fetcher with a fixed per-request timeout.
func New(cfg *Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		urls: map[domain.EntityType]string{
			domain.EntityConference: cfg.ConferenceURL,
			domain.EntityJournal:    cfg.JournalURL,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Fetch downloads and decodes the feed for one corpus. The feed is a JSON
// array of flat objects; non-string values are stringified so the rest of
// the pipeline only deals with flat string fields.
func (f *Fetcher) Fetch(ctx context.Context, t domain.EntityType) ([]domain.Record, error) {
	url, ok := f.urls[t]
	if !ok || url == "" {
		return nil, fmt.Errorf("no source url for %s: %w", t, domain.ErrUnknownEntityType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", t, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s feed: status %d", t, resp.StatusCode)
	}

	var raw []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s feed: %w", t, err)
	}

	createdAt := f.now().Unix()
	records := make([]domain.Record, 0, len(raw))
	for _, item := range raw {
		fields := make(map[string]string, len(item))
		for k, v := range item {
			if s := stringify(v); s != "" {
				fields[k] = s
			}
		}
		records = append(records, domain.Record{Type: t, Fields: fields, CreatedAt: createdAt})
	}

	f.logger.Debug("Fetched source feed",
		zap.String("entity", string(t)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// stringify flattens a decoded JSON value into a field string.
// Arrays join with ", " (topic and category lists in the feeds).
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}
