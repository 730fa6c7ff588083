package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"follownet/backend/internal/notifylog"
	apperrors "follownet/backend/pkg/errors"
	"follownet/backend/pkg/logger"
)

// Kind enumerates the events the relationship engine emits
type Kind string

const (
	KindFollow   Kind = "follow"
	KindUnfollow Kind = "unfollow"
)

// Emitter makes one best-effort delivery attempt for a notification event.
// Implementations never retry; the caller logs a failed attempt and moves
// on, because the graph mutation that triggered it has already committed.
type Emitter interface {
	Emit(ctx context.Context, recipientID, actorID int, kind Kind, actorUsername string) error
}

// Log is the slice of the notification store an in-process emitter needs
type Log interface {
	Append(ctx context.Context, n *notifylog.Notification) (*notifylog.Notification, error)
}

// LogEmitter delivers events straight into a co-hosted notification log
type LogEmitter struct {
	log    Log
	logger *zap.Logger
}

// NewLogEmitter creates an emitter backed by the local notification log
func NewLogEmitter(log Log) *LogEmitter {
	return &LogEmitter{
		log:    log,
		logger: logger.Get(),
	}
}

// Emit appends the event to the log
func (e *LogEmitter) Emit(ctx context.Context, recipientID, actorID int, kind Kind, actorUsername string) error {
	_, err := e.log.Append(ctx, &notifylog.Notification{
		UserID:              recipientID,
		TriggeredByUserID:   actorID,
		Type:                string(kind),
		TriggeredByUsername: actorUsername,
	})
	if err != nil {
		return apperrors.NewNotificationDeliveryFailed(recipientID, err)
	}
	return nil
}

// HTTPEmitter delivers events to the internal notification API of a
// separate notification deployment with a single JSON POST.
type HTTPEmitter struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPEmitter creates an emitter that posts to baseURL/api/notifications
func NewHTTPEmitter(baseURL string) *HTTPEmitter {
	return &HTTPEmitter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger.Get(),
	}
}

// Emit posts the event; any transport error or non-2xx status counts as a
// failed attempt.
func (e *HTTPEmitter) Emit(ctx context.Context, recipientID, actorID int, kind Kind, actorUsername string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"userId":              recipientID,
		"triggeredByUserId":   actorID,
		"type":                string(kind),
		"triggeredByUsername": actorUsername,
	})
	if err != nil {
		return apperrors.NewNotificationDeliveryFailed(recipientID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/notifications", bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewNotificationDeliveryFailed(recipientID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return apperrors.NewNotificationDeliveryFailed(recipientID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewNotificationDeliveryFailed(recipientID, fmt.Errorf("notification API returned %d", resp.StatusCode))
	}

	e.logger.Debug("Notification delivered",
		zap.Int("recipient_id", recipientID),
		zap.String("kind", string(kind)),
	)
	return nil
}
