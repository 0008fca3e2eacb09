// Package notifx delivers outbound callback notifications for terminal job
// states. Delivery is bounded-retry and decoupled from job-state transitions:
// a broken callback endpoint can never reopen or block a job.
package notifx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ucbscz/registro/pkg/logx"
)

// Notification is the payload delivered to a callback URL.
type Notification struct {
	TareaID string          `json:"tareaId"`
	Estado  string          `json:"estado"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error,omitempty"`
}

// Sender delivers a single notification. Providers decide the transport.
type Sender interface {
	Send(ctx context.Context, callbackURL string, n Notification) error
}

// DeadLetterSink records notifications whose delivery attempts were exhausted.
type DeadLetterSink interface {
	DeadLetter(ctx context.Context, callbackURL string, n Notification, reason string) error
}

// Client is the main entry point for sending callback notifications.
type Client struct {
	provider Sender
	opts     Options
}

// NewClient creates a notification client around a provider.
func NewClient(provider Sender, options ...Option) *Client {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{provider: provider, opts: opts}
}

// Notify delivers n to callbackURL with bounded retries. Exhausted deliveries
// are dead-lettered (when a sink is configured) and logged; the returned
// error is informational only.
func (c *Client) Notify(ctx context.Context, callbackURL string, n Notification) error {
	if callbackURL == "" {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		lastErr = c.provider.Send(ctx, callbackURL, n)
		if lastErr == nil {
			logx.WithFields(logx.Fields{
				"tarea_id": n.TareaID,
				"url":      callbackURL,
				"attempt":  attempt,
			}).Debug("notifx: callback delivered")
			return nil
		}

		if ctx.Err() != nil {
			break
		}
		if attempt < c.opts.MaxAttempts {
			select {
			case <-ctx.Done():
				attempt = c.opts.MaxAttempts
			case <-time.After(c.opts.RetryDelay * time.Duration(attempt)):
			}
		}
	}

	logx.WithError(lastErr).WithFields(logx.Fields{
		"tarea_id": n.TareaID,
		"url":      callbackURL,
		"attempts": c.opts.MaxAttempts,
	}).Error("notifx: callback delivery exhausted")

	if c.opts.Dead != nil {
		if dlErr := c.opts.Dead.DeadLetter(ctx, callbackURL, n, lastErr.Error()); dlErr != nil {
			logx.WithError(dlErr).WithField("tarea_id", n.TareaID).
				Error("notifx: failed to dead-letter callback")
		}
	}

	return lastErr
}
