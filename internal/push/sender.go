// Package push delivers notifications through an FCM-compatible HTTP
// endpoint. A log-only sender stands in when no server key is configured.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultSendTimeout = 10 * time.Second

// --------------------------------------------------------------------------
// FCMSender
// --------------------------------------------------------------------------

// FCMSender posts messages to an FCM-style HTTP send endpoint.
type FCMSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFCMSender creates an FCM sender. Returns nil when serverKey is empty
// (push delivery disabled); callers fall back to a LogSender.
func NewFCMSender(endpoint, serverKey string, timeout time.Duration, logger *slog.Logger) *FCMSender {
	if serverKey == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &FCMSender{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type sendRequest struct {
	To           string `json:"to"`
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"notification"`
}

type sendResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

// Send submits one push message addressed to a device token.
func (s *FCMSender) Send(ctx context.Context, token, title, body string) error {
	var payload sendRequest
	payload.To = token
	payload.Notification.Title = title
	payload.Notification.Body = body

	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read push response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push provider returned %d", resp.StatusCode)
	}

	var result sendResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}
	if result.Failure > 0 {
		reason := "unknown"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("push rejected: %s", reason)
	}
	return nil
}

// --------------------------------------------------------------------------
// LogSender
// --------------------------------------------------------------------------

// LogSender logs sends instead of delivering them. Used in development and
// when no push server key is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and reports success.
func (s *LogSender) Send(ctx context.Context, token, title, body string) error {
	s.logger.Info("Push send (delivery disabled)", "title", title, "body", body)
	return nil
}
