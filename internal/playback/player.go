// Package playback models the track player as a state machine driven by
// user actions and media events, so it can run without any audio device.
package playback

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jaki95/studio-eighty7/internal/domain"
)

// DefaultVolume is the volume a new player starts with.
const DefaultVolume = 0.75

var ErrTrackOutOfRange = errors.New("track index out of range")

type Phase int

const (
	Stopped Phase = iota
	Playing
	Paused
)

func (p Phase) String() string {
	switch p {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// State is a snapshot of the player.
type State struct {
	TrackIndex int
	Phase      Phase
	Position   time.Duration
	// Duration is zero until the media reports it for the current track.
	Duration time.Duration
	Volume   float64
	Muted    bool
}

// Player is safe for concurrent use; media events may arrive from other
// goroutines than user actions.
type Player struct {
	mu        sync.Mutex
	tracks    []domain.Track
	durations map[string]time.Duration
	state     State
}

func New(tracks []domain.Track) *Player {
	return &Player{
		tracks:    append([]domain.Track(nil), tracks...),
		durations: make(map[string]time.Duration),
		state:     State{Phase: Stopped, Volume: DefaultVolume},
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the selected track, if there is one.
func (p *Player) Current() (domain.Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return domain.Track{}, false
	}
	return p.tracks[p.state.TrackIndex], true
}

// SelectTrack starts track i from the beginning, or stops on it when it has
// no audio.
func (p *Player) SelectTrack(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.tracks) {
		return fmt.Errorf("%w: %d", ErrTrackOutOfRange, i)
	}
	p.moveTo(i, Playing)
	return nil
}

// TogglePlay switches between playing and paused at the same position. A
// stopped track starts playing. Tracks without audio are left alone.
func (p *Player) TogglePlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 || !p.tracks[p.state.TrackIndex].HasAudio() {
		return
	}
	switch p.state.Phase {
	case Playing:
		p.state.Phase = Paused
	default:
		p.state.Phase = Playing
	}
}

// Next moves to the following track, wrapping around, and keeps whether
// the player was playing or paused.
func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return
	}
	p.moveTo((p.state.TrackIndex+1)%len(p.tracks), p.state.Phase)
}

// Previous moves to the preceding track, wrapping around.
func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.tracks)
	if n == 0 {
		return
	}
	p.moveTo((p.state.TrackIndex-1+n)%n, p.state.Phase)
}

// Seek moves the position without changing the phase. It is clamped to the
// known duration.
func (p *Player) Seek(t time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return
	}
	p.state.Position = p.clampPosition(t)
}

// SetVolume clamps v to [0, 1].
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return
	}
	switch {
	case v < 0 || math.IsNaN(v):
		v = 0
	case v > 1:
		v = 1
	}
	p.state.Volume = v
}

func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return
	}
	p.state.Muted = !p.state.Muted
}

// MetadataLoaded records the real duration of a track. Repeated or late
// reports only touch that track's entry.
func (p *Player) MetadataLoaded(trackID string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 || d <= 0 {
		return
	}
	p.durations[trackID] = d
	if p.tracks[p.state.TrackIndex].ID == trackID {
		p.state.Duration = d
		p.state.Position = p.clampPosition(p.state.Position)
	}
}

// TimeAdvanced reports playback progress. It is ignored unless playing, so
// events that arrive after a pause or track change have no effect.
func (p *Player) TimeAdvanced(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 || p.state.Phase != Playing {
		return
	}
	p.state.Position = p.clampPosition(pos)
}

// Ended handles the natural end of the current track: advance and play.
func (p *Player) Ended() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tracks) == 0 {
		return
	}
	p.moveTo((p.state.TrackIndex+1)%len(p.tracks), Playing)
}

// DisplayDuration returns the duration to show for track i: the reported
// one once known, otherwise the track's nominal duration.
func (p *Player) DisplayDuration(i int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.tracks) {
		return ""
	}
	t := p.tracks[i]
	if d, ok := p.durations[t.ID]; ok {
		return FormatDuration(d)
	}
	return t.Duration
}

// Progress is the position as a percentage of the known duration.
func (p *Player) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Duration <= 0 {
		return 0
	}
	return float64(p.state.Position) / float64(p.state.Duration) * 100
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// moveTo selects track i at position 0. want is the phase the caller asks
// for; a track without audio always ends up stopped and a stopped player
// stays stopped.
func (p *Player) moveTo(i int, want Phase) {
	t := p.tracks[i]
	p.state.TrackIndex = i
	p.state.Position = 0
	p.state.Duration = p.durations[t.ID]
	if !t.HasAudio() {
		p.state.Phase = Stopped
		return
	}
	p.state.Phase = want
}

func (p *Player) clampPosition(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if p.state.Duration > 0 && t > p.state.Duration {
		return p.state.Duration
	}
	return t
}
