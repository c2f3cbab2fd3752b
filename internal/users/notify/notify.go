// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package notify turns account events into queued emails.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/warden/internal/platform/mail"
	"github.com/taibuivan/warden/internal/users/account"
)

const (
	resetTemplate = "reset_password"
	resetSubject  = "Reset Your Password"
)

// Renderer renders a named template pair into a message.
type Renderer interface {
	Render(name, to, subject string, data any) (mail.Message, error)
}

// ResetMailer implements [account.ResetNotifier] on top of the mail outbox.
type ResetMailer struct {
	queue    mail.Queue
	renderer Renderer
	appName  string
}

// NewResetMailer constructs a [ResetMailer].
func NewResetMailer(queue mail.Queue, renderer Renderer, appName string) *ResetMailer {
	return &ResetMailer{queue: queue, renderer: renderer, appName: appName}
}

type resetData struct {
	AppName   string
	FirstName string
	Link      string
	ExpiresIn string
}

// NotifyPasswordReset renders the reset email and enqueues it. Delivery
// itself happens later in the mail dispatcher.
func (mailer *ResetMailer) NotifyPasswordReset(context context.Context, notice account.ResetNotice) error {
	message, err := mailer.renderer.Render(resetTemplate, notice.Email, resetSubject, resetData{
		AppName:   mailer.appName,
		FirstName: notice.FirstName,
		Link:      notice.Link,
		ExpiresIn: humanizeDuration(notice.ExpiresIn),
	})
	if err != nil {
		return fmt.Errorf("notify_reset_render_failed: %w", err)
	}

	if err := mailer.queue.Enqueue(context, message); err != nil {
		return fmt.Errorf("notify_reset_enqueue_failed: %w", err)
	}

	return nil
}

// humanizeDuration renders whole hours and minutes, e.g. "1 hour 30 minutes".
func humanizeDuration(duration time.Duration) string {
	duration = duration.Round(time.Minute)
	hours := int(duration / time.Hour)
	minutes := int((duration % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
