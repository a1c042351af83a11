package server

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 0 {
		return 0, errors.New("invalid_int")
	}
	return parsed, nil
}

// parseOptionalDate validates a calendar-date bound and returns it in
// canonical form. Dashboard reducers compare dates as strings, so the
// bound must already be normalized.
func parseOptionalDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := time.Parse(dateOnlyLayout, trimmed)
	if err != nil {
		return "", errors.New("invalid_date")
	}
	return parsed.Format(dateOnlyLayout), nil
}
