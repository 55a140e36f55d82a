// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Webhook delivery settings
const (
	WebhookTimeout   = 10 * time.Second
	WebhookUserAgent = "uniblog/1.0"
	SignatureHeader  = "X-Uniblog-Signature"
	EventHeader      = "X-Uniblog-Event"
	maxErrorBody     = 1024
)

// WebhookNotifier POSTs notifications as JSON to a fixed URL.
// Payloads are signed with HMAC-SHA256 when a secret is set.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier for url.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: WebhookTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Notify sends n. Any non-2xx response is an error.
func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", WebhookUserAgent)
	req.Header.Set(EventHeader, n.Type)
	if w.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Sign returns the hex HMAC-SHA256 of payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign.
func Verify(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, secret)))
}
