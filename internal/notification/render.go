package notification

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"
)

// Render substitutes {{key}} placeholders with values from data. Nested maps are addressed with
// dotted keys ({{order.uid}}). Unknown placeholders are left in place.
func Render(template string, data map[string]any) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return fasttemplate.ExecuteFuncString(template, "{{", "}}", func(w io.Writer, tag string) (int, error) {
		value, ok := lookup(data, strings.TrimSpace(tag))
		if !ok {
			return io.WriteString(w, "{{"+tag+"}}")
		}
		return io.WriteString(w, stringify(value))
	})
}

func lookup(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; never use exponent notation
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Flatten turns data into a string map suitable for notification context, using dotted keys
// for nested maps.
func Flatten(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	flattenInto(out, "", data)
	return out
}

func flattenInto(out map[string]string, prefix string, data map[string]any) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = stringify(v)
	}
}
