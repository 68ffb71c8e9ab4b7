// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package notify provides the concrete notification channel senders
// (SMTP email, HTTP SMS gateway) behind the engine's ChannelSender
// interface, plus a circuit breaker wrapper shared by both.
package notify

import (
	"context"
	"fmt"

	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/mail"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
)

// SMTPConfig configures the email channel.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"omitempty,min=1,max=65535"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from" validate:"omitempty,email"`
}

// Configured reports whether the channel has enough settings to send.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// EmailSender delivers alert notifications over SMTP.
type EmailSender struct {
	cfg SMTPConfig
}

// NewEmailSender creates an email channel sender.
func NewEmailSender(cfg SMTPConfig) *EmailSender {
	return &EmailSender{cfg: cfg}
}

// Channel returns the channel this sender serves.
func (e *EmailSender) Channel() engine.Channel {
	return engine.ChannelEmail
}

// Send delivers one message to a single recipient address.
func (e *EmailSender) Send(ctx context.Context, contact, subject, body string) error {
	// Fresh mail service per send; the notify mail service accumulates
	// receivers across AddReceivers calls, so reuse would duplicate sends.
	svc := mail.New(e.cfg.From, fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port))
	if e.cfg.Username != "" {
		svc.AuthenticateSMTP("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	svc.AddReceivers(contact)
	svc.BodyFormat(mail.PlainText)

	n := notify.New()
	n.UseServices(svc)

	if err := n.Send(ctx, subject, body); err != nil {
		return fmt.Errorf("send email to %s: %w", contact, err)
	}
	return nil
}
