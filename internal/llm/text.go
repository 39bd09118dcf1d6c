package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Text is a free-form string field of model output. It also accepts null
// (empty) and numbers or booleans (their literal text).
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("llm: expected text, got %s", data[:1])
	default:
		*t = Text(data)
	}
	return nil
}

// TextList is a list of free-form strings. null decodes to an empty list,
// a bare value to a one-item list, and empty items are dropped.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var items []Text
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	} else {
		var item Text
		if err := item.UnmarshalJSON(data); err != nil {
			return err
		}
		items = []Text{item}
	}

	out := make(TextList, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, string(item))
		}
	}
	*l = out
	return nil
}
