// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
)

// SMSConfig configures the HTTP SMS gateway channel.
type SMSConfig struct {
	// GatewayURL is the HTTP endpoint messages are POSTed to.
	GatewayURL string `koanf:"gateway_url" validate:"omitempty,url"`

	// APIKey is sent as a bearer token.
	APIKey string `koanf:"api_key"`

	// SenderID is the originator shown to recipients.
	SenderID string `koanf:"sender_id"`
}

// Configured reports whether the channel has enough settings to send.
func (c SMSConfig) Configured() bool {
	return c.GatewayURL != ""
}

// SMSSender delivers alert notifications through an HTTP SMS gateway.
// The gateway contract is a POST with a JSON body; anything above 399
// is a failed delivery.
type SMSSender struct {
	cfg    SMSConfig
	client *http.Client
}

// smsPayload is the JSON body sent to the gateway.
type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Message string `json:"message"`
}

// NewSMSSender creates an SMS channel sender.
func NewSMSSender(cfg SMSConfig) *SMSSender {
	return &SMSSender{
		cfg: cfg,
		client: &http.Client{
			// Ceiling only; the fan-out bounds each attempt with its
			// own per-target context timeout.
			Timeout: 10 * time.Second,
		},
	}
}

// Channel returns the channel this sender serves.
func (s *SMSSender) Channel() engine.Channel {
	return engine.ChannelSMS
}

// Send delivers one message to a single phone number.
func (s *SMSSender) Send(ctx context.Context, contact, subject, body string) error {
	payload := smsPayload{
		To:      contact,
		From:    s.cfg.SenderID,
		Message: subject + "\n" + body,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", contact, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
