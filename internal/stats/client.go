// Package stats provides a thin HTTP client for the external hit
// counter service.  The counter records URI visits and answers
// range-aggregated view counts; it is consumed as a black box and its
// availability is never allowed to affect the caller's request.
package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// timeLayout is the timestamp layout the stats server expects for hit
// timestamps and query range bounds.
const timeLayout = "2006-01-02 15:04:05"

// ViewStats is one row of the counter's aggregated answer: how many
// hits a URI received within the queried range.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// endpointHit is the payload of a recorded visit.
type endpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the stats server over HTTP.  Both operations are
// deliberately forgiving: RecordHit logs and swallows every failure,
// QueryHits reports the failure to the caller who degrades to zeroed
// counts.
type Client struct {
	baseURL string
	app     string
	http    *http.Client
}

// NewClient returns a stats client for the given server base URL.  The
// app name identifies this service in recorded hits.
func NewClient(baseURL, app string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		app:     app,
		http:    &http.Client{Timeout: timeout},
	}
}

// RecordHit posts one visit of the given URI to the stats server.
// Fire-and-forget: failures are logged and ignored so that a degraded
// counter never breaks the surrounding request.
func (c *Client) RecordHit(ctx context.Context, uri, clientIP string) {
	hit := endpointHit{
		App:       c.app,
		URI:       uri,
		IP:        clientIP,
		Timestamp: time.Now().UTC().Format(timeLayout),
	}
	body, err := json.Marshal(hit)
	if err != nil {
		log.Printf("stats-client: marshal hit failed: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		log.Printf("stats-client: build hit request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("stats-client: stats server unreachable: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		log.Printf("stats-client: hit rejected with status %d", resp.StatusCode)
	}
}

// QueryHits returns aggregated hit counts for the given URIs within
// [start, end].  unique requests deduplication by client address.  Any
// transport or decoding failure is returned to the caller, who treats
// it as "no view data".
func (c *Client) QueryHits(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]ViewStats, error) {
	q := url.Values{}
	q.Set("start", start.Format(timeLayout))
	q.Set("end", end.Format(timeLayout))
	q.Set("unique", strconv.FormatBool(unique))
	if len(uris) > 0 {
		q.Set("uris", strings.Join(uris, ","))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats server returned status %d", resp.StatusCode)
	}
	var out []ViewStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode stats response: %w", err)
	}
	return out, nil
}
