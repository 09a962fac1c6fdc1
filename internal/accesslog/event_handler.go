package accesslog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/filehub/internal/core/events"
)

var fileActions = map[string]string{
	events.EventTypeFileUploaded:     ActionUpload,
	events.EventTypeFileUploadFailed: ActionUploadFailed,
	events.EventTypeFileDownloaded:   ActionDownload,
	events.EventTypeFileDeleted:      ActionDelete,
	events.EventTypeFileViewed:       ActionView,
}

var authActions = map[string]string{
	events.EventTypeUserLogin:       ActionLogin,
	events.EventTypeUserLoginFailed: ActionLoginFailed,
	events.EventTypeUserLogout:      ActionLogout,
	events.EventTypeUserRegistered:  ActionRegister,
}

// EventHandler turns domain events into action rows.
type EventHandler struct {
	sink   Sink
	logger *slog.Logger
}

func NewEventHandler(sink Sink, logger *slog.Logger) *EventHandler {
	return &EventHandler{sink: sink, logger: logger}
}

func (h *EventHandler) HandleFileEvent(_ context.Context, event events.Event) error {
	fe, ok := event.(*events.FileEvent)
	if !ok {
		h.logger.Error("invalid event type for file event handler", "event_type", event.EventType())
		return fmt.Errorf("expected FileEvent, got %T", event)
	}

	action := fileActions[fe.EventType()]
	status := http.StatusOK
	if action == ActionUploadFailed {
		status = http.StatusInternalServerError
	}

	details := fe.Filename
	if fe.Details != "" {
		details = fe.Filename + " (" + fe.Details + ")"
	}

	h.sink.Record(&Entry{
		UserID:     optionalID(fe.UserID),
		FileID:     optionalID(fe.FileID),
		IPAddress:  fe.IPAddress,
		UserAgent:  fe.UserAgent,
		Endpoint:   fe.EventType(),
		Method:     "EVENT",
		StatusCode: status,
		CreatedAt:  fe.OccurredAt().UTC(),
		Action:     action,
		Details:    details,
	})
	return nil
}

func (h *EventHandler) HandleAuthEvent(_ context.Context, event events.Event) error {
	ae, ok := event.(*events.AuthEvent)
	if !ok {
		h.logger.Error("invalid event type for auth event handler", "event_type", event.EventType())
		return fmt.Errorf("expected AuthEvent, got %T", event)
	}

	action := authActions[ae.EventType()]
	status := http.StatusOK
	if action == ActionLoginFailed {
		status = http.StatusUnauthorized
	}

	details := "username: " + ae.Username
	if ae.Details != "" {
		details += ", " + ae.Details
	}

	h.sink.Record(&Entry{
		UserID:     optionalID(ae.UserID),
		IPAddress:  ae.IPAddress,
		UserAgent:  ae.UserAgent,
		Endpoint:   ae.EventType(),
		Method:     "EVENT",
		StatusCode: status,
		CreatedAt:  ae.OccurredAt().UTC(),
		Action:     action,
		Details:    details,
	})
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	subscribed := make([]string, 0, len(fileActions)+len(authActions))
	for eventType := range fileActions {
		eventBus.Subscribe(eventType, h.HandleFileEvent)
		subscribed = append(subscribed, eventType)
	}
	for eventType := range authActions {
		eventBus.Subscribe(eventType, h.HandleAuthEvent)
		subscribed = append(subscribed, eventType)
	}

	h.logger.Info("access log event handlers registered", "handlers", subscribed)
}
