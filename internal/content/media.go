package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MediaKind tells how a MediaRef points at its file.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaURL
	MediaID
)

// MediaRef is the polymorphic audio_url field of a track. The CMS stores it
// as a direct URL, an attachment id (number or numeric string), or an
// attachment object; an unset field arrives as false, null or "".
type MediaRef struct {
	Kind MediaKind
	URL  string
	ID   int64
}

func (m MediaRef) IsZero() bool {
	return m.Kind == MediaNone
}

func (m *MediaRef) UnmarshalJSON(data []byte) error {
	*m = MediaRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case 'n', 't', 'f':
		// null, true, false
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = mediaFromString(s)
		return nil
	case '{':
		var obj struct {
			URL       *string         `json:"url"`
			SourceURL *string         `json:"source_url"`
			UpperID   json.RawMessage `json:"ID"`
			ID        json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.URL != nil:
			*m = MediaRef{Kind: MediaURL, URL: *obj.URL}
		case obj.SourceURL != nil:
			*m = MediaRef{Kind: MediaURL, URL: *obj.SourceURL}
		default:
			if id, ok := parseMediaID(obj.UpperID); ok {
				*m = MediaRef{Kind: MediaID, ID: id}
			} else if id, ok := parseMediaID(obj.ID); ok {
				*m = MediaRef{Kind: MediaID, ID: id}
			}
		}
		return nil
	case '[':
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid media reference %s: %w", data, err)
		}
		if id, ok := parseMediaID(data); ok {
			*m = MediaRef{Kind: MediaID, ID: id}
		}
		return nil
	}
}

func mediaFromString(s string) MediaRef {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return MediaRef{}
	case strings.HasPrefix(s, "http"), strings.HasPrefix(s, "/"):
		return MediaRef{Kind: MediaURL, URL: s}
	}
	if id, ok := parseNumericString(s); ok {
		return MediaRef{Kind: MediaID, ID: id}
	}
	return MediaRef{}
}

// parseMediaID accepts a JSON number or a JSON string of digits.
func parseMediaID(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseNumericString(s)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseNumericString(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
