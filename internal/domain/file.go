package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type FileRecord struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	Size             FlexInt   `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
	Metadata         Metadata  `json:"metadata,omitempty"`
}

func (f FileRecord) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

func (f FileRecord) IsPDF() bool {
	return f.MimeType == MimePDF
}

// Metadata is an opaque document. The backend sends it either as a JSON
// object or as a string holding encoded JSON; both normalize to the object.
// A string that does not hold JSON is kept as a plain JSON string.
type Metadata json.RawMessage

func (m *Metadata) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return fmt.Errorf("failed to decode metadata string: %w", err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*m = nil
			return nil
		}
		if !json.Valid([]byte(encoded)) {
			*m = append((*m)[:0], trimmed...)
			return nil
		}
		*m = Metadata(encoded)
		return nil
	}

	*m = append((*m)[:0], trimmed...)
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	if len(m) == 0 {
		return []byte("null"), nil
	}
	return m, nil
}

func (m Metadata) Empty() bool {
	return len(m) == 0
}

// Fields decodes the document into a flat map. Non-object documents yield nil.
func (m Metadata) Fields() map[string]any {
	if m.Empty() {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal(m, &fields); err != nil {
		return nil
	}
	return fields
}

// FlexInt accepts JSON numbers, numeric strings and null. Fractions are
// truncated toward zero.
type FlexInt int64

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*n = 0
		return nil
	}

	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("failed to decode numeric string %s: %w", raw, err)
		}
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*n = 0
			return nil
		}
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = FlexInt(v)
		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid numeric value %q", raw)
	}
	*n = FlexInt(math.Trunc(f))
	return nil
}

func (n FlexInt) Int64() int64 {
	return int64(n)
}
