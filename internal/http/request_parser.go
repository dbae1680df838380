// Package http serves the spendwise JSON API.
//
// This file implements utilities for parsing and validating HTTP request
// data. Bodies may be JSON or form-encoded, as sent by HTMX forms.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/report"
)

const (
	maxBodyBytes = 1 << 20

	sessionCookieName = "spendwise_session"
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data. Failures are
// validation errors on the "body" field.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(p.err, &tooLarge) {
			p.err = &core.ValidationError{Field: "body", Reason: "request body too large"}
		}
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = &core.ValidationError{Field: "body", Reason: "malformed JSON"}
		}
		return p.err
	}

	var err error
	if p.formData, err = url.ParseQuery(string(p.body)); err != nil {
		p.err = &core.ValidationError{Field: "body", Reason: "malformed form data"}
	}
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.GetExact(key))
}

// GetExact returns the value untouched. Used for secrets, where
// whitespace is significant.
func (p *RequestBodyParser) GetExact(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseBody reads and parses the request body in one step.
func ParseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

// ExpenseDraft extracts the expense form fields. Parsing of amount, date
// and category is left to core.Draft.Validate.
func (p *RequestBodyParser) ExpenseDraft() core.Draft {
	return core.Draft{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		Notes:       p.Get("notes"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
	}
}

// ParseReportQuery reads the range, category and predict selectors.
// Missing values select everything without a projection.
func ParseReportQuery(values url.Values) (report.Query, error) {
	rng, err := report.ParseRange(strings.TrimSpace(values.Get("range")))
	if err != nil {
		return report.Query{}, err
	}

	category := sanitizeInput(values.Get("category"))
	if category == "" {
		category = report.AllCategories
	}

	predict := false
	if v := strings.TrimSpace(values.Get("predict")); v != "" {
		predict, err = strconv.ParseBool(v)
		if err != nil {
			return report.Query{}, &core.ValidationError{Field: "predict", Reason: "predict must be true or false"}
		}
	}

	return report.Query{Range: rng, Category: category, Predict: predict}, nil
}

// sessionToken returns the session token from the cookie or, failing
// that, from an Authorization: Bearer header.
func sessionToken(r *http.Request) (token string, fromCookie bool) {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	h := r.Header.Get("Authorization")
	if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(tok), false
	}
	return "", false
}
