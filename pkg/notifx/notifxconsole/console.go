package notifxconsole

import (
	"context"

	"github.com/ucbscz/registro/pkg/logx"
	"github.com/ucbscz/registro/pkg/notifx"
)

// ConsoleSender prints notifications via logx instead of delivering them.
// Intended for development and testing.
type ConsoleSender struct{}

var _ notifx.Sender = (*ConsoleSender)(nil)

// NewConsoleSender creates a new console notification provider.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

// Send logs the notification details instead of sending them.
func (s *ConsoleSender) Send(_ context.Context, callbackURL string, n notifx.Notification) error {
	logx.WithFields(logx.Fields{
		"tarea_id": n.TareaID,
		"estado":   n.Estado,
		"url":      callbackURL,
	}).Info("notifx/console: callback notification (dev mode)")

	if len(n.Result) > 0 {
		logx.Debugf("notifx/console: result: %s", string(n.Result))
	}

	return nil
}
