package content

import (
	"fmt"
	"net/url"

	"github.com/jaki95/studio-eighty7/internal/domain"
)

// PlaceholderCover is used when a live record has no artwork.
const PlaceholderCover = "/placeholder.svg"

// placeholderArt renders a self-contained SVG cover so the fallback set
// needs no network access.
func placeholderArt(text string) string {
	const size = 500
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[1]d" viewBox="0 0 %[1]d %[1]d">`+
		`<rect width="100%%" height="100%%" fill="#050505"/>`+
		`<rect x="10" y="10" width="%[2]d" height="%[2]d" fill="none" stroke="#DC2626" stroke-width="2"/>`+
		`<text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" fill="#DC2626" font-family="sans-serif" font-size="32" font-weight="bold">%[3]s</text>`+
		`</svg>`, size, size-20, text)
	return "data:image/svg+xml," + url.PathEscape(svg)
}

var fallbackAlbums = []domain.Album{
	{
		ID:            "1",
		Title:         "Katana Dreams",
		Subtitle:      "Tek-Domain Production",
		Year:          "2024",
		Cover:         placeholderArt("KATANA"),
		TrackCount:    12,
		Description:   "A sonic journey through the streets, featuring hard-hitting beats and raw lyrics.",
		PurchaseURL:   "#",
		SpotifyURL:    "#",
		AppleMusicURL: "#",
	},
	{
		ID:            "2",
		Title:         "Blade Runner",
		Subtitle:      "Studio Eighty7",
		Year:          "2023",
		Cover:         placeholderArt("BLADE"),
		TrackCount:    10,
		Description:   "Dark, atmospheric hip-hop with futuristic production.",
		PurchaseURL:   "#",
		SpotifyURL:    "#",
		AppleMusicURL: "#",
	},
	{
		ID:            "3",
		Title:         "Ronin Mode",
		Subtitle:      "Tek-Domain",
		Year:          "2023",
		Cover:         placeholderArt("RONIN"),
		TrackCount:    8,
		Description:   "Aggressive bars over experimental beats.",
		PurchaseURL:   "#",
		SpotifyURL:    "#",
		AppleMusicURL: "#",
	},
	{
		ID:            "4",
		Title:         "Shadow Warrior",
		Subtitle:      "Studio Eighty7",
		Year:          "2022",
		Cover:         placeholderArt("SHADOW"),
		TrackCount:    15,
		Description:   "Classic boom-bap meets modern production.",
		PurchaseURL:   "#",
		SpotifyURL:    "#",
		AppleMusicURL: "#",
	},
}

var fallbackTracks = []domain.Track{
	{ID: "1", Title: "Katana Sharp", Artist: "Tek-Domain", Duration: "3:45", Cover: placeholderArt("TRACK 1"), Genre: "Hip-Hop"},
	{ID: "2", Title: "Blade Dance", Artist: "Tek-Domain", Duration: "4:12", Cover: placeholderArt("TRACK 2"), Genre: "Hip-Hop"},
	{ID: "3", Title: "Ronin Rise", Artist: "Tek-Domain", Duration: "3:28", Cover: placeholderArt("TRACK 3"), Genre: "Hip-Hop"},
	{ID: "4", Title: "Shadow Walk", Artist: "Tek-Domain", Duration: "3:55", Cover: placeholderArt("TRACK 4"), Genre: "Hip-Hop"},
	{ID: "5", Title: "Warrior Code", Artist: "Tek-Domain", Duration: "4:02", Cover: placeholderArt("TRACK 5"), Genre: "Hip-Hop"},
}

var fallbackServices = []domain.Service{
	{
		ID:          "1",
		Title:       "Music Production",
		Description: "Full-scale beat production from concept to completion. We craft custom instrumentals tailored to your vision, genre, and style.",
		Icon:        "music",
	},
	{
		ID:          "2",
		Title:       "Mixing & Mastering",
		Description: "Professional mixing and mastering services to give your tracks the polished, radio-ready sound they deserve.",
		Icon:        "sliders",
	},
	{
		ID:          "3",
		Title:       "Artist Development",
		Description: "Comprehensive artist development including branding, sound design, and career guidance for emerging talent.",
		Icon:        "headphones",
	},
}

var fallbackAbout = domain.About{
	Title: "About Studio Eighty7",
	Content: "<p>Studio Eighty7 is a state-of-the-art recording studio and production house founded by Tek-Domain. " +
		"We specialize in hip-hop, R&B, and electronic music production, delivering high-quality sound to artists worldwide.</p>" +
		"<p>Our mission is simple: provide professional-grade production services that help artists realize their creative vision without compromise.</p>",
	Excerpt: "State-of-the-art recording studio and production house.",
}

// FallbackAlbums returns a copy of the bundled albums.
func FallbackAlbums() []domain.Album {
	return append([]domain.Album(nil), fallbackAlbums...)
}

// FallbackTracks returns a copy of the bundled tracks. None of them has audio.
func FallbackTracks() []domain.Track {
	return append([]domain.Track(nil), fallbackTracks...)
}

// FallbackServices returns a copy of the bundled services.
func FallbackServices() []domain.Service {
	return append([]domain.Service(nil), fallbackServices...)
}

func FallbackAbout() domain.About {
	return fallbackAbout
}
