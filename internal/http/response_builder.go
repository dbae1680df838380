// Package http serves the spendwise JSON API.
//
// This file implements the Builder Pattern for constructing responses.
// It builds JSON bodies and, for HTMX requests, HX-Trigger headers.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// EventExpensesChanged tells HTMX clients to refresh expense-derived views.
const EventExpensesChanged = "expenses-changed"

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
	err        error
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data interface{}) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerExpensesChanged adds the expenses-changed trigger carrying the
// user's new data version.
func (b *ResponseBuilder) TriggerExpensesChanged(version uint64) *ResponseBuilder {
	return b.Trigger(EventExpensesChanged, map[string]uint64{"version": version})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// TriggerNotification adds a show-notification trigger.
func (b *ResponseBuilder) TriggerNotification(notifType NotificationType, message string) *ResponseBuilder {
	return b.Trigger("show-notification", map[string]interface{}{
		"type":    string(notifType),
		"message": message,
	})
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v, encoded as JSON, as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		b.err = err
		return b
	}
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.body = body
	return b
}

// Write sends the built response. HX-Trigger is only set when r is an
// HTMX request.
func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	if b.err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", b.err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 && isHTMX(r) {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

func isHTMX(r *http.Request) bool {
	return r != nil && r.Header.Get("HX-Request") == "true"
}
