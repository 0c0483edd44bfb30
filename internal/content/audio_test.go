package content

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractAudioURL(t *testing.T) {
	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{name: "empty", markup: "", expected: ""},
		{name: "audio src", markup: `<p>Listen</p><audio controls src="https://x/a.mp3"></audio>`, expected: "https://x/a.mp3"},
		{name: "source inside audio", markup: `<audio controls><source src="/u/b.wav" type="audio/wav"></audio>`, expected: "/u/b.wav"},
		{name: "audio src wins over source", markup: `<source src="/first.ogg"><audio src="/second.mp3"></audio>`, expected: "/second.mp3"},
		{name: "link to file", markup: `<a href="/about">About</a><a href="https://x/c.m4a">Download</a>`, expected: "https://x/c.m4a"},
		{name: "link with query", markup: `<a href="https://x/d.ogg?v=2">Play</a>`, expected: "https://x/d.ogg?v=2"},
		{name: "upper case extension", markup: `<a href="https://x/E.MP3">Play</a>`, expected: "https://x/E.MP3"},
		{name: "no audio", markup: `<p>No preview yet. <a href="/contact">Ask</a></p>`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractAudioURL(tt.markup))
		})
	}
}

func TestExtractAudioURLFallback(t *testing.T) {
	assert.Equal(t, "/a.mp3", extractAudioURLFallback(`<audio class="x" src='/a.mp3'>`))
	assert.Equal(t, "/b.wav", extractAudioURLFallback(`<source src="/b.wav">`))
	assert.Equal(t, "/c.ogg?x=1", extractAudioURLFallback(`<a href="/c.ogg?x=1">`))
	assert.Equal(t, "", extractAudioURLFallback(`<p>none</p>`))
}

type fakeMedia struct {
	urls     map[int64]string
	delay    map[int64]time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeMedia) MediaURL(ctx context.Context, id int64) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(f.delay[id])

	u, ok := f.urls[id]
	if !ok {
		return "", errors.New("media not found")
	}
	return u, nil
}

func trackWithContent(id int64, markup string) wpTrack {
	var tr wpTrack
	tr.ID = id
	tr.Title = &wpRendered{Rendered: "t"}
	tr.Content.Rendered = markup
	return tr
}

func trackWithRef(id int64, ref MediaRef) wpTrack {
	tr := trackWithContent(id, "")
	tr.ACF.Fields.AudioURL = ref
	return tr
}

func TestAudioResolverPreservesOrder(t *testing.T) {
	media := &fakeMedia{
		urls: map[int64]string{100: "https://x/100.mp3", 200: "https://x/200.mp3"},
		// the first lookup finishes last
		delay: map[int64]time.Duration{100: 30 * time.Millisecond},
	}
	r := NewAudioResolver(media, 2, nil)

	tracks := []wpTrack{
		trackWithRef(1, MediaRef{Kind: MediaID, ID: 100}),
		trackWithRef(2, MediaRef{Kind: MediaID, ID: 200}),
		trackWithContent(3, `<audio src="/inline.mp3"></audio>`),
		trackWithRef(4, MediaRef{Kind: MediaURL, URL: "/direct.wav"}),
		trackWithRef(5, MediaRef{Kind: MediaID, ID: 999}),
		trackWithRef(6, MediaRef{}),
	}

	got := r.Resolve(context.Background(), tracks)
	assert.Equal(t, []string{
		"https://x/100.mp3",
		"https://x/200.mp3",
		"/inline.mp3",
		"/direct.wav",
		"",
		"",
	}, got)
}

func TestAudioResolverPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		ref         MediaRef
		markup      string
		expected    string
		wantLookups int32
	}{
		{
			name:     "direct url beats content",
			ref:      MediaRef{Kind: MediaURL, URL: "https://cdn/direct.mp3"},
			markup:   `<audio src="https://cdn/markup.mp3"></audio>`,
			expected: "https://cdn/direct.mp3",
		},
		{
			name:        "media id beats content",
			ref:         MediaRef{Kind: MediaID, ID: 5},
			markup:      `<a href="/from-content.mp3">play</a>`,
			expected:    "https://x/5.mp3",
			wantLookups: 1,
		},
		{
			name:        "failed lookup falls back to content",
			ref:         MediaRef{Kind: MediaID, ID: 404},
			markup:      `<a href="/from-content.mp3">play</a>`,
			expected:    "/from-content.mp3",
			wantLookups: 1,
		},
		{
			name:     "content when no custom field",
			markup:   `<audio src="https://cdn/markup.mp3"></audio>`,
			expected: "https://cdn/markup.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := &fakeMedia{urls: map[int64]string{5: "https://x/5.mp3"}}
			tr := trackWithRef(1, tt.ref)
			tr.Content.Rendered = tt.markup

			got := NewAudioResolver(media, 1, nil).Resolve(context.Background(), []wpTrack{tr})
			assert.Equal(t, []string{tt.expected}, got)
			assert.Equal(t, tt.wantLookups, media.maxSeen.Load())
		})
	}
}

func TestAudioResolverBoundsConcurrency(t *testing.T) {
	media := &fakeMedia{urls: map[int64]string{}, delay: map[int64]time.Duration{}}
	var tracks []wpTrack
	for i := int64(1); i <= 12; i++ {
		media.urls[i] = "u"
		media.delay[i] = 5 * time.Millisecond
		tracks = append(tracks, trackWithRef(i, MediaRef{Kind: MediaID, ID: i}))
	}

	NewAudioResolver(media, 3, nil).Resolve(context.Background(), tracks)
	assert.LessOrEqual(t, media.maxSeen.Load(), int32(3))
}
