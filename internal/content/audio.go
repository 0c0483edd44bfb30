package content

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

const defaultResolveLimit = 4

var (
	audioLinkPattern = regexp.MustCompile(`(?i)\.(mp3|wav|m4a|ogg)(\?.*)?$`)

	audioSrcPattern  = regexp.MustCompile(`(?i)<audio[^>]*src=["']([^"']+)["']`)
	sourceSrcPattern = regexp.MustCompile(`(?i)<source[^>]*src=["']([^"']+)["']`)
	audioHrefPattern = regexp.MustCompile(`(?i)href=["']([^"']+\.(?:mp3|wav|m4a|ogg)(?:\?[^"']*)?)["']`)
)

// ExtractAudioURL finds a playable file referenced by rendered post markup:
// an audio element's src, then a source element's src, then a link to an
// audio file. It returns "" when there is none.
func ExtractAudioURL(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return extractAudioURLFallback(markup)
	}

	if src, ok := doc.Find("audio[src]").First().Attr("src"); ok && src != "" {
		return src
	}
	if src, ok := doc.Find("audio source[src], source[src]").First().Attr("src"); ok && src != "" {
		return src
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if audioLinkPattern.MatchString(h) {
			href = h
			return false
		}
		return true
	})
	return href
}

func extractAudioURLFallback(markup string) string {
	for _, p := range []*regexp.Regexp{audioSrcPattern, sourceSrcPattern, audioHrefPattern} {
		if m := p.FindStringSubmatch(markup); m != nil {
			return m[1]
		}
	}
	return ""
}

// MediaLookup resolves a media attachment id to its file URL.
type MediaLookup interface {
	MediaURL(ctx context.Context, id int64) (string, error)
}

// AudioResolver fills in audio URLs for a batch of tracks.
type AudioResolver struct {
	media  MediaLookup
	limit  int
	logger *slog.Logger
}

func NewAudioResolver(media MediaLookup, limit int, logger *slog.Logger) *AudioResolver {
	if limit <= 0 {
		limit = defaultResolveLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AudioResolver{media: media, limit: limit, logger: logger}
}

// Resolve returns one URL per track in input order. A track whose URL can't
// be determined gets "" and never fails the batch.
func (r *AudioResolver) Resolve(ctx context.Context, tracks []wpTrack) []string {
	urls := make([]string, len(tracks))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, t := range tracks {
		g.Go(func() error {
			urls[i] = r.resolveOne(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	return urls
}

// resolveOne prefers an explicit direct URL, then the media attachment the
// track points at, then audio embedded in the rendered content.
func (r *AudioResolver) resolveOne(ctx context.Context, t wpTrack) string {
	ref := t.audioRef()
	switch ref.Kind {
	case MediaURL:
		return ref.URL
	case MediaID:
		if u := r.lookup(ctx, t.ID, ref.ID); u != "" {
			return u
		}
	}
	return ExtractAudioURL(t.Content.Rendered)
}

func (r *AudioResolver) lookup(ctx context.Context, track, media int64) string {
	if r.media == nil {
		return ""
	}
	u, err := r.media.MediaURL(ctx, media)
	if err != nil {
		r.logger.Debug("failed to resolve audio attachment", "track", track, "media", media, "error", err)
		return ""
	}
	return u
}
