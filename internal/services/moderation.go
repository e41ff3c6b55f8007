// Package services – ModerationClient
//
// This file implements the client for the external AI moderation endpoint.
// The endpoint is a black box: it receives the song/artist/requester fields
// and returns appropriateness/duplicate/completeness flags plus a reason.
//
// The call races a fixed local timer. If the endpoint has not answered when
// the timer fires, a hardcoded "approved" result is used and the in-flight
// call is left to finish on its own; moderation may delay a request but can
// never block it.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tuneconnect/tuneconnect-backend/internal/domain"
)

// defaultModerationTimeout bounds the caller-side wait for a verdict.
const defaultModerationTimeout = 5 * time.Second

// ModerationInput is the request payload sent to the moderation endpoint.
type ModerationInput struct {
	Song          string `json:"song"`
	Artist        string `json:"artist,omitempty"`
	RequesterName string `json:"requester_name,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ModerationClient calls the external moderation endpoint. A zero URL
// disables moderation entirely: every request gets the defaulted approval.
type ModerationClient struct {
	URL     string
	Timeout time.Duration
	HTTP    *http.Client
	Log     zerolog.Logger
}

// NewModerationClient wires a client with the default timeout and transport.
func NewModerationClient(url string, timeout time.Duration, log zerolog.Logger) *ModerationClient {
	if timeout <= 0 {
		timeout = defaultModerationTimeout
	}
	return &ModerationClient{
		URL:     url,
		Timeout: timeout,
		HTTP:    &http.Client{},
		Log:     log,
	}
}

// approvedDefault is the verdict used when moderation is unavailable, slow,
// or misconfigured. Requests are never rejected by infrastructure trouble.
func approvedDefault() domain.ModerationResult {
	return domain.ModerationResult{
		Appropriate: true,
		Duplicate:   false,
		Complete:    true,
		Defaulted:   true,
	}
}

// Review obtains a moderation verdict for the given input. It never returns
// an error: any failure or timeout yields the defaulted approval, and the
// degradation is logged.
func (c *ModerationClient) Review(ctx context.Context, in ModerationInput) domain.ModerationResult {
	if c.URL == "" {
		return approvedDefault()
	}

	type outcome struct {
		res domain.ModerationResult
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		res, err := c.call(ctx, in)
		ch <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			c.Log.Warn().Err(out.err).Msg("moderation call failed, using default approval")
			return approvedDefault()
		}
		return out.res
	case <-timer.C:
		c.Log.Warn().Dur("timeout", c.Timeout).Msg("moderation call timed out, using default approval")
		return approvedDefault()
	case <-ctx.Done():
		return approvedDefault()
	}
}

// call performs the actual HTTP round-trip.
func (c *ModerationClient) call(ctx context.Context, in ModerationInput) (domain.ModerationResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return domain.ModerationResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return domain.ModerationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return domain.ModerationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ModerationResult{}, fmt.Errorf("moderation endpoint returned %d", resp.StatusCode)
	}
	var res domain.ModerationResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return domain.ModerationResult{}, err
	}
	return res, nil
}
