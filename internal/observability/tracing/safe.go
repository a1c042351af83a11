package tracing

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const maxAttributeLength = 256

// SafeAttributes truncates oversized string attributes before export.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Value.Type() == attribute.STRING {
			value := attr.Value.AsString()
			if len(value) > maxAttributeLength {
				attr = attribute.String(string(attr.Key), value[:maxAttributeLength])
			}
		}
		out = append(out, attr)
	}
	return out
}

// SafeError strips request payload fragments from recorded errors.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return nil
	}
	if len(msg) > maxAttributeLength {
		msg = msg[:maxAttributeLength]
	}
	return errors.New(msg)
}
