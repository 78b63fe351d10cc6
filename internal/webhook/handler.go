// File: internal/webhook/handler.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"identity_sync_backend/internal/common"
	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/middleware"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgNoSvixHeaders = "Error occurred -- no svix headers"
	msgError         = "Error occurred"
)

var validate = validator.New()

// Handler receives signed user lifecycle events from the identity provider.
type Handler struct {
	verifier     Verifier
	users        user.Service
	metrics      *metrics.Prom
	path         string
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewHandler creates the webhook handler. It panics when verifier is nil: a
// receiver that cannot check signatures must never serve traffic.
func NewHandler(verifier Verifier, users user.Service, m *metrics.Prom, cfg *config.Config, logger *zap.Logger) *Handler {
	if verifier == nil {
		panic(config.ErrMissingWebhookSecret)
	}
	path := cfg.WebhookPath
	if path == "" {
		path = "/api/webhooks"
	}
	return &Handler{
		verifier:     verifier,
		users:        users,
		metrics:      m,
		path:         path,
		maxBodyBytes: cfg.WebhookMaxBodyBytes,
		logger:       logger.Named("webhook"),
	}
}

// RegisterRoutes mounts the receiver on WEBHOOK_PATH.
func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.POST(h.path, h.receive)
}

func (h *Handler) receive(c *gin.Context) {
	log := h.logger.With(
		zap.String("request_id", c.GetString(middleware.RequestIDContextKey)),
		zap.String("svix_id", c.GetHeader(HeaderSvixID)),
	)

	if !hasSvixHeaders(c.Request.Header) {
		log.Warn("Webhook rejected: missing svix headers")
		h.metrics.ObserveWebhook("", metrics.OutcomeRejected)
		c.String(http.StatusBadRequest, msgNoSvixHeaders)
		return
	}

	body, err := h.readBody(c)
	if err != nil {
		log.Warn("Webhook rejected: unreadable body", zap.Error(err))
		h.metrics.ObserveWebhook("", metrics.OutcomeRejected)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, msgError)
			return
		}
		c.String(http.StatusBadRequest, msgError)
		return
	}

	// The signature covers the exact bytes on the wire.
	if err := h.verifier.Verify(body, c.Request.Header); err != nil {
		log.Warn("Error verifying webhook", zap.Error(err))
		h.metrics.ObserveWebhook("", metrics.OutcomeRejected)
		c.String(http.StatusBadRequest, msgError)
		return
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		log.Warn("Webhook rejected: undecodable event", zap.Error(err))
		h.metrics.ObserveWebhook("", metrics.OutcomeInvalid)
		c.String(http.StatusBadRequest, msgError)
		return
	}
	log = log.With(zap.String("event_type", evt.Type))

	outcome, err := h.dispatch(c.Request.Context(), evt)
	h.metrics.ObserveWebhook(eventLabel(evt.Type), outcome)
	if err != nil {
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &ve):
			log.Warn("Webhook rejected: invalid event data", zap.Error(err))
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
		case errors.Is(err, errBadData):
			log.Warn("Webhook rejected: undecodable event data", zap.Error(err))
			c.String(http.StatusBadRequest, msgError)
		default:
			log.Error("Webhook processing failed", zap.Error(err))
			_ = c.Error(err)
		}
		return
	}

	log.Debug("Webhook handled", zap.String("outcome", outcome))
	c.Status(http.StatusOK)
}

var errBadData = errors.New("event data does not match its type")

// dispatch applies one verified event and reports the metrics outcome.
func (h *Handler) dispatch(ctx context.Context, evt Event) (string, error) {
	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		var data UserData
		if err := decodeData(evt.Data, &data); err != nil {
			return metrics.OutcomeInvalid, err
		}
		if _, err := h.users.SyncUser(ctx, data.Profile()); err != nil {
			return metrics.OutcomeFailed, err
		}
		return metrics.OutcomeProcessed, nil

	case EventUserDeleted:
		var data DeletedData
		if err := decodeData(evt.Data, &data); err != nil {
			return metrics.OutcomeInvalid, err
		}
		if err := h.users.DeleteUser(ctx, data.ID); err != nil {
			return metrics.OutcomeFailed, err
		}
		return metrics.OutcomeProcessed, nil

	default:
		h.logger.Debug("Ignoring unhandled event type", zap.String("event_type", evt.Type))
		return metrics.OutcomeIgnored, nil
	}
}

func decodeData(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(errBadData, err)
	}
	return validate.Struct(dst)
}

func (h *Handler) readBody(c *gin.Context) ([]byte, error) {
	if h.maxBodyBytes <= 0 {
		return io.ReadAll(c.Request.Body)
	}
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes))
}

// eventLabel keeps the metrics label set bounded.
func eventLabel(eventType string) string {
	switch eventType {
	case EventUserCreated, EventUserUpdated, EventUserDeleted:
		return eventType
	default:
		return "other"
	}
}
