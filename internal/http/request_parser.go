package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contas/internal/core"
)

// RequestBody wraps a parsed JSON object and knows which keys were present,
// so PATCH handlers can tell "absent" from "explicitly cleared".
type RequestBody struct {
	fields map[string]any
}

// ParseRequestBody reads and decodes a JSON request body. An empty body
// parses to an empty object.
func ParseRequestBody(r *http.Request) (*RequestBody, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) == 0 {
		return &RequestBody{fields: map[string]any{}}, nil
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &RequestBody{fields: fields}, nil
}

// Has reports whether the key appeared in the request body.
func (b *RequestBody) Has(key string) bool {
	_, ok := b.fields[key]
	return ok
}

// String returns a sanitized string value for the key.
func (b *RequestBody) String(key string) string {
	v, ok := b.fields[key]
	if !ok {
		return ""
	}
	return sanitizeInput(stringValue(v))
}

// Int returns an integer value for the key.
func (b *RequestBody) Int(key string) (int, error) {
	v, ok := b.fields[key]
	if !ok {
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return int(val), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(val))
	default:
		return 0, fmt.Errorf("field %s: expected a number", key)
	}
}

// Bool returns a boolean value for the key.
func (b *RequestBody) Bool(key string) (bool, error) {
	v, ok := b.fields[key]
	if !ok {
		return false, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(val))
	default:
		return false, fmt.Errorf("field %s: expected a boolean", key)
	}
}

// Money parses an amount field. Decimal strings use either separator
// ("123.45" or "123,45"); plain JSON numbers are read as reais.
func (b *RequestBody) Money(key string) (core.Money, error) {
	v, ok := b.fields[key]
	if !ok {
		return core.Money{}, nil
	}

	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return core.Money{}, fmt.Errorf("field %s: empty amount", key)
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("field %s: %w", key, err)
	}
	return core.Money{Cents: cents}, nil
}

// Date parses a "2006-01-02" field. An empty string yields the zero Date,
// which PATCH handlers treat as "clear".
func (b *RequestBody) Date(key string) (core.Date, error) {
	v, ok := b.fields[key]
	if !ok {
		return core.Date{}, nil
	}

	s := strings.TrimSpace(stringValue(v))
	if s == "" {
		return core.Date{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("field %s: expected YYYY-MM-DD date", key)
	}
	return core.Date{Time: t}, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// MonthParams holds parsed year/month values from query parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from the query string, defaulting
// to the current date. Out-of-range values fall back to the current period.
func ParseMonthParams(r *http.Request, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	query := r.URL.Query()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1970 && y <= 9999 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}
