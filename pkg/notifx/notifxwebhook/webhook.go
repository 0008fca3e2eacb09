// Package notifxwebhook delivers callback notifications as HTTP POST
// requests. Each request carries a signed token so receivers can verify the
// notification actually originated from this service.
package notifxwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ucbscz/registro/pkg/notifx"
)

// TokenHeader is the request header carrying the signed notification token.
const TokenHeader = "X-Registro-Token"

// WebhookSender implements notifx.Sender over HTTP.
type WebhookSender struct {
	client     *http.Client
	signingKey []byte
}

var _ notifx.Sender = (*WebhookSender)(nil)

// NewWebhookSender creates a webhook provider. The signing key is used for
// the HS256 token attached to every request; timeout bounds each attempt.
func NewWebhookSender(signingKey string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		client:     &http.Client{Timeout: timeout},
		signingKey: []byte(signingKey),
	}
}

// Send POSTs the notification as JSON to callbackURL.
func (s *WebhookSender) Send(ctx context.Context, callbackURL string, n notifx.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return notifx.Errors().NewWithCause(notifx.ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return notifx.Errors().NewWithCause(notifx.ErrInvalidURL, err).WithDetail("url", callbackURL)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := s.token(n)
	if err != nil {
		return notifx.Errors().NewWithCause(notifx.ErrDelivery, err)
	}
	req.Header.Set(TokenHeader, token)

	resp, err := s.client.Do(req)
	if err != nil {
		return notifx.Errors().NewWithCause(notifx.ErrDelivery, err).WithDetail("url", callbackURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return notifx.Errors().NewWithMessage(notifx.ErrBadStatus,
			fmt.Sprintf("callback endpoint returned %d", resp.StatusCode)).
			WithDetail("url", callbackURL).
			WithDetail("status", resp.StatusCode)
	}

	return nil
}

// token builds the HS256 token binding the notification to its job.
func (s *WebhookSender) token(n notifx.Notification) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"tarea_id": n.TareaID,
		"estado":   n.Estado,
		"iat":      now.Unix(),
		"exp":      now.Add(5 * time.Minute).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}
