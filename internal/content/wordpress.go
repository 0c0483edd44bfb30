package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaki95/studio-eighty7/internal/domain"
)

const (
	DefaultBaseURL = "https://studioeighty7.com/index.php"
	DefaultTimeout = 10 * time.Second

	trackPageSize   = 20
	servicePageSize = 10
)

// ErrNotFound means the content API does not expose the requested type.
var ErrNotFound = errors.New("content endpoint not found")

// Source is the live content API.
type Source interface {
	Tracks(ctx context.Context) ([]domain.Track, error)
	Albums(ctx context.Context) ([]domain.Album, error)
	Services(ctx context.Context) ([]domain.Service, error)
	About(ctx context.Context) (domain.About, error)
}

var serviceIcons = []string{"music", "sliders", "headphones"}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// WordPressSource reads content from a WordPress REST API using the
// ?rest_route= form, which keeps working on hosts that block /wp-json.
type WordPressSource struct {
	baseURL    string
	httpClient *http.Client
	resolver   *AudioResolver
	now        func() time.Time
}

type WordPressOption func(*WordPressSource)

func WithHTTPClient(hc *http.Client) WordPressOption {
	return func(s *WordPressSource) { s.httpClient = hc }
}

// WithResolveLimit bounds concurrent media lookups per track batch.
func WithResolveLimit(n int) WordPressOption {
	return func(s *WordPressSource) {
		if n > 0 {
			s.resolver.limit = n
		}
	}
}

func WithLogger(logger *slog.Logger) WordPressOption {
	return func(s *WordPressSource) {
		if logger != nil {
			s.resolver.logger = logger
		}
	}
}

func NewWordPressSource(baseURL string, opts ...WordPressOption) *WordPressSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &WordPressSource{
		baseURL:    strings.TrimRight(baseURL, "?"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
	s.resolver = NewAudioResolver(s, defaultResolveLimit, nil)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WordPressSource) routeURL(route string, extra ...string) string {
	u := s.baseURL + "?rest_route=" + route
	for _, e := range extra {
		u += "&" + e
	}
	return u
}

func (s *WordPressSource) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *WordPressSource) Albums(ctx context.Context) ([]domain.Album, error) {
	var raw []wpAlbum
	if err := s.getJSON(ctx, s.routeURL("/wp/v2/album", "_embed"), &raw); err != nil {
		return nil, fmt.Errorf("albums: %w", err)
	}

	albums := make([]domain.Album, 0, len(raw))
	for _, a := range raw {
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("albums: %w", err)
		}
		f := a.ACF.Fields
		albums = append(albums, domain.Album{
			ID:            strconv.FormatInt(a.ID, 10),
			Title:         a.Title.Rendered,
			Subtitle:      orDefault(f.Subtitle, "Studio Eighty7"),
			Year:          orDefault(string(f.Year), strconv.Itoa(s.now().Year())),
			Cover:         firstNonEmpty(a.featuredImage(), f.AlbumArt, PlaceholderCover),
			TrackCount:    int(f.Tracks),
			Description:   StripTags(a.Excerpt.Rendered),
			PurchaseURL:   orDefault(f.PurchaseURL, "#"),
			SpotifyURL:    orDefault(f.SpotifyURL, "#"),
			AppleMusicURL: orDefault(f.AppleMusicURL, "#"),
		})
	}
	return albums, nil
}

func (s *WordPressSource) Tracks(ctx context.Context) ([]domain.Track, error) {
	var raw []wpTrack
	reqURL := s.routeURL("/wp/v2/track", "_embed", fmt.Sprintf("per_page=%d", trackPageSize))
	if err := s.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("tracks: %w", err)
	}
	for _, t := range raw {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("tracks: %w", err)
		}
	}

	audio := s.resolver.Resolve(ctx, raw)

	tracks := make([]domain.Track, len(raw))
	for i, t := range raw {
		f := t.ACF.Fields
		tracks[i] = domain.Track{
			ID:       strconv.FormatInt(t.ID, 10),
			Title:    t.Title.Rendered,
			Artist:   orDefault(f.Artist, "Tek-Domain"),
			Duration: orDefault(f.Duration, "3:00"),
			Cover:    firstNonEmpty(t.featuredImage(), PlaceholderCover),
			Genre:    orDefault(f.Genre, "Hip-Hop"),
			AudioURL: audio[i],
		}
	}
	return tracks, nil
}

func (s *WordPressSource) Services(ctx context.Context) ([]domain.Service, error) {
	var raw []wpPost
	reqURL := s.routeURL("/wp/v2/service", fmt.Sprintf("per_page=%d", servicePageSize))
	if err := s.getJSON(ctx, reqURL, &raw); err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}

	services := make([]domain.Service, 0, len(raw))
	for i, p := range raw {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("services: %w", err)
		}
		services = append(services, domain.Service{
			ID:          strconv.FormatInt(p.ID, 10),
			Title:       p.Title.Rendered,
			Description: StripTags(p.Excerpt.Rendered),
			Icon:        serviceIcons[i%len(serviceIcons)],
		})
	}
	return services, nil
}

func (s *WordPressSource) About(ctx context.Context) (domain.About, error) {
	var raw []wpPost
	if err := s.getJSON(ctx, s.routeURL("/wp/v2/pages", "slug=about"), &raw); err != nil {
		return domain.About{}, fmt.Errorf("about: %w", err)
	}
	if len(raw) == 0 {
		return domain.About{}, fmt.Errorf("about: %w", ErrNotFound)
	}

	page := raw[0]
	if err := page.validate(); err != nil {
		return domain.About{}, fmt.Errorf("about: %w", err)
	}
	return domain.About{
		Title:   page.Title.Rendered,
		Content: page.Content.Rendered,
		Excerpt: page.Excerpt.Rendered,
	}, nil
}

// MediaURL looks up an attachment's file URL.
func (s *WordPressSource) MediaURL(ctx context.Context, id int64) (string, error) {
	var media wpMedia
	if err := s.getJSON(ctx, s.routeURL(fmt.Sprintf("/wp/v2/media/%d", id)), &media); err != nil {
		return "", fmt.Errorf("media %d: %w", id, err)
	}
	return media.SourceURL, nil
}

// StripTags returns the text of a markup fragment with entities decoded.
func StripTags(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(tagPattern.ReplaceAllString(markup, ""))
	}
	return strings.TrimSpace(doc.Text())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
