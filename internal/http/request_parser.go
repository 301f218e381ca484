// Package http serves the ledger and its reports as a JSON API.
//
// This file holds the helpers that read query parameters, identity headers
// and JSON bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

const (
	// HeaderUserID carries the viewer set by the authenticating proxy.
	HeaderUserID = "X-User-ID"

	maxBodyBytes = 1 << 20
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// today for the missing ones. Malformed numbers are an error.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{Year: today.Year, Month: today.Month}

	year, err := intParam(query, "year", params.Year)
	if err != nil {
		return MonthParams{}, err
	}
	month, err := intParam(query, "month", params.Month)
	if err != nil {
		return MonthParams{}, err
	}
	params.Year, params.Month = year, month
	return params, nil
}

// ParseYearParam extracts the year query parameter, defaulting to today's.
func ParseYearParam(query url.Values, today core.Date) (int, error) {
	return intParam(query, "year", today.Year)
}

// ParseDateParam reads an optional YYYY-MM-DD query parameter.
func ParseDateParam(query url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intParam(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// Viewer returns the user the request acts for.
func Viewer(r *http.Request) string {
	return sanitizeInput(r.Header.Get(HeaderUserID))
}

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body larger than %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}

// RequireMethod checks the request method against the allowed ones.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
