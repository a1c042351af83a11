package normalize

import (
	"fmt"
	"strings"
	"time"

	recorddomain "github.com/steelworks/opshub/internal/record/domain"
)

// RowError reports a field that could not be fully normalized. The row
// itself always survives: unparseable dates keep their original value
// and missing required fields are left empty, so downstream validation
// sees the problem too.
type RowError struct {
	Source recorddomain.Source `json:"source"`
	Index  int                 `json:"index"`
	Field  string              `json:"field"`
	Value  string              `json:"value"`
	Reason string              `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d, field %s: %s (value %q)", e.Source, e.Index, e.Field, e.Reason, e.Value)
}

// dateLayouts are tried in order. The first match wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"January 2, 2006",
	time.RFC3339,
}

// Normalize cleans every row from a source: values are trimmed, values
// starting with a digit get leading zeros stripped, and date fields are
// rewritten to YYYY-MM-DD. Output preserves input order and count; no
// row is ever dropped or added. The input rows are not mutated, and
// normalizing an already normalized row is a no-op.
func Normalize(rows []recorddomain.Row, source recorddomain.Source) ([]recorddomain.Row, []RowError) {
	out := make([]recorddomain.Row, 0, len(rows))
	var errs []RowError

	required := recorddomain.RequiredFields(source)
	dateFields := recorddomain.DateFields(source)

	for i, row := range rows {
		cleaned := make(recorddomain.Row, len(row))
		for field, value := range row {
			cleaned[field] = StripLeadingZeros(strings.TrimSpace(value))
		}

		for _, field := range required {
			if cleaned[field] == "" {
				errs = append(errs, RowError{
					Source: source,
					Index:  i,
					Field:  field,
					Reason: "required field missing",
				})
			}
		}

		for _, field := range dateFields {
			raw := cleaned[field]
			if raw == "" {
				continue
			}
			canonical, err := Date(raw)
			if err != nil {
				errs = append(errs, RowError{
					Source: source,
					Index:  i,
					Field:  field,
					Value:  raw,
					Reason: "unrecognized date format",
				})
				continue
			}
			cleaned[field] = canonical
		}

		if raw := cleaned[recorddomain.FieldSourceUpdated]; raw != "" {
			canonical, err := Timestamp(raw)
			if err != nil {
				errs = append(errs, RowError{
					Source: source,
					Index:  i,
					Field:  recorddomain.FieldSourceUpdated,
					Value:  raw,
					Reason: "unrecognized timestamp format",
				})
			} else {
				cleaned[recorddomain.FieldSourceUpdated] = canonical
			}
		}

		out = append(out, cleaned)
	}

	return out, errs
}

// StripLeadingZeros removes leading zeros from values that start with a
// digit, so "0042" and "42" identify the same lot and "0010" reads as
// the quantity 10. Values that are entirely zeros collapse to "0", and
// values starting with a letter pass through untouched. Applied to
// every field uniformly, not just lot codes.
func StripLeadingZeros(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || value[0] < '0' || value[0] > '9' {
		return value
	}
	trimmed := strings.TrimLeft(value, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// timestampLayouts cover the update timestamps the source systems emit.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp rewrites an update timestamp to RFC 3339 in UTC.
func Timestamp(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.UTC().Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp format %q", value)
}

// Date rewrites a date string to YYYY-MM-DD, trying each accepted
// layout in order.
func Date(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unrecognized date format %q", value)
}
