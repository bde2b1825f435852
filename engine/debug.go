package engine

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

const maxDebugString = 50

// TruncatedJSON renders v as indented JSON with every string longer than 50
// characters clipped and suffixed with "...".
func TruncatedJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "{}"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(clipStrings(generic)); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func clipStrings(v any) any {
	switch x := v.(type) {
	case string:
		return sl.Clip(x, maxDebugString)
	case map[string]any:
		for k, e := range x {
			x[k] = clipStrings(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = clipStrings(e)
		}
		return x
	}
	return v
}
