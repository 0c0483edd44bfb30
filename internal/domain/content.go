package domain

// Track represents a playable track shown in the player.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration string `json:"duration"`
	Cover    string `json:"cover"`
	Genre    string `json:"genre"`
	// AudioURL is empty when no preview is available.
	AudioURL string `json:"audioUrl"`
}

// HasAudio reports whether the track has a resolved audio source.
func (t Track) HasAudio() bool {
	return t.AudioURL != ""
}

// Album represents a released album.
type Album struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	Year          string `json:"year"`
	Cover         string `json:"cover"`
	TrackCount    int    `json:"trackCount"`
	Description   string `json:"description"`
	PurchaseURL   string `json:"purchaseUrl"`
	SpotifyURL    string `json:"spotifyUrl"`
	AppleMusicURL string `json:"appleMusicUrl"`
}

// Service represents a studio service offering.
type Service struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// About holds the about page content. Content is rendered markup.
type About struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
}

// Resource names a content type served by the content source.
type Resource string

const (
	ResourceTracks   Resource = "tracks"
	ResourceAlbums   Resource = "albums"
	ResourceServices Resource = "services"
	ResourceAbout    Resource = "about"
)

// ParseResource maps a path segment to a Resource.
func ParseResource(s string) (Resource, bool) {
	switch Resource(s) {
	case ResourceTracks, ResourceAlbums, ResourceServices, ResourceAbout:
		return Resource(s), true
	}
	return "", false
}
