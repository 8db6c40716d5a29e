// Package towns fetches town population records from the remote town data service.
package towns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/observability"
)

// Fetcher returns the top towns for a limit.
type Fetcher interface {
	Fetch(ctx context.Context, limit int) ([]model.TownRecord, error)
}

// Client calls GET <base>/<limit> on the town data service.
type Client struct {
	logger   *slog.Logger
	client   *http.Client
	base     *url.URL
	startNow func() time.Time // for tests
}

func NewClient(logger *slog.Logger, client *http.Client, base string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse towns url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("towns url %q must be absolute", base)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger:   logger,
		client:   client,
		base:     u,
		startNow: time.Now,
	}, nil
}

// BaseURL is the service root without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// Fetch requests limit towns. Every failure is returned as *DataFetchError.
func (c *Client) Fetch(ctx context.Context, limit int) ([]model.TownRecord, error) {
	if limit <= 0 {
		return nil, &DataFetchError{Limit: limit, Err: fmt.Errorf("limit must be positive, got %d", limit)}
	}

	u := c.base.JoinPath(strconv.Itoa(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &DataFetchError{Limit: limit, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := c.startNow()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &DataFetchError{Limit: limit, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	dur := time.Since(start)
	observability.ObserveUpstreamLatency("towns", dur.Seconds())
	c.logger.DebugContext(ctx, "towns fetched",
		"limit", limit,
		"status", resp.StatusCode,
		"duration", dur)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, &DataFetchError{
			Limit:  limit,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}

	records, err := Decode(resp.Body)
	if err != nil {
		return nil, &DataFetchError{Limit: limit, Status: resp.StatusCode, Err: err}
	}
	return records, nil
}

// Decode parses a town service response body.
func Decode(r io.Reader) ([]model.TownRecord, error) {
	var records []model.TownRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := validate(records); err != nil {
		return nil, err
	}
	return records, nil
}

var errNegativePopulation = errors.New("negative population")

func validate(records []model.TownRecord) error {
	for i, r := range records {
		if r.Population < 0 {
			return fmt.Errorf("record %d (%q): %w", i, r.Town, errNegativePopulation)
		}
	}
	return nil
}
