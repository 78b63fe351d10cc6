// File: internal/webhook/verifier.go
package webhook

import (
	"fmt"
	"net/http"
	"strings"

	"identity_sync_backend/internal/config"

	svix "github.com/svix/svix-webhooks/go"
)

// Svix signature headers sent with every delivery.
const (
	HeaderSvixID        = "svix-id"
	HeaderSvixTimestamp = "svix-timestamp"
	HeaderSvixSignature = "svix-signature"
)

// Verifier checks that a raw payload was signed with the shared webhook secret.
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

// NewVerifier builds a Svix verifier from WEBHOOK_SECRET.
func NewVerifier(cfg *config.Config) (Verifier, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, config.ErrMissingWebhookSecret
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_SECRET: %w", err)
	}
	return wh, nil
}

func hasSvixHeaders(h http.Header) bool {
	return h.Get(HeaderSvixID) != "" &&
		h.Get(HeaderSvixTimestamp) != "" &&
		h.Get(HeaderSvixSignature) != ""
}
