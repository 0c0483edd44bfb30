package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var errMissingField = errors.New("missing required field")

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpFeaturedMedia struct {
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text"`
}

type wpEmbedded struct {
	FeaturedMedia []wpFeaturedMedia `json:"wp:featuredmedia"`
}

// wpPost holds the fields shared by every post type.
type wpPost struct {
	ID       int64       `json:"id"`
	Title    *wpRendered `json:"title"`
	Content  wpRendered  `json:"content"`
	Excerpt  wpRendered  `json:"excerpt"`
	Embedded *wpEmbedded `json:"_embedded"`
}

func (p wpPost) validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("post id: %w", errMissingField)
	}
	if p.Title == nil {
		return fmt.Errorf("post %d title: %w", p.ID, errMissingField)
	}
	return nil
}

func (p wpPost) featuredImage() string {
	if p.Embedded == nil || len(p.Embedded.FeaturedMedia) == 0 {
		return ""
	}
	return p.Embedded.FeaturedMedia[0].SourceURL
}

type wpAlbumFields struct {
	Subtitle      string     `json:"subtitle"`
	Year          flexString `json:"year"`
	Tracks        flexInt    `json:"tracks"`
	AlbumArt      string     `json:"album_art"`
	PurchaseURL   string     `json:"purchase_url"`
	SpotifyURL    string     `json:"spotify_url"`
	AppleMusicURL string     `json:"apple_music_url"`
}

type wpAlbum struct {
	wpPost
	ACF acf[wpAlbumFields] `json:"acf"`
}

type wpTrackFields struct {
	Artist   string     `json:"artist"`
	Duration string     `json:"duration"`
	Genre    string     `json:"genre"`
	AudioURL MediaRef   `json:"audio_url"`
	Album    flexString `json:"album"`
}

type wpTrackMeta struct {
	AudioURL MediaRef `json:"audio_url"`
}

type wpTrack struct {
	wpPost
	ACF  acf[wpTrackFields] `json:"acf"`
	Meta acf[wpTrackMeta]   `json:"meta"`
}

// audioRef prefers the custom field and falls back to post meta.
func (t wpTrack) audioRef() MediaRef {
	if !t.ACF.Fields.AudioURL.IsZero() {
		return t.ACF.Fields.AudioURL
	}
	return t.Meta.Fields.AudioURL
}

type wpMedia struct {
	SourceURL string `json:"source_url"`
}

// acf decodes a custom-fields object. The CMS sends an empty array or
// false instead of an object when no fields are set.
type acf[T any] struct {
	Fields T
}

func (a *acf[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	return json.Unmarshal(data, &a.Fields)
}

// flexString accepts a JSON string or number. Other values decode as "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == "false" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*s = ""
		return nil
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string; anything else is 0.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	n, err := strconv.Atoi(string(s))
	if err != nil {
		*i = 0
		return nil
	}
	*i = flexInt(n)
	return nil
}
