// Package track holds the in-memory set of loaded tracks.
package track

import (
	"fmt"

	"github.com/OCAP2/tracksync/pkg/core"
)

// Store owns the loaded tracks. Indices are positions in load order and shift
// down when an earlier track is removed.
type Store struct {
	tracks []*core.Track
}

// NewStore creates an empty track store.
func NewStore() *Store {
	return &Store{tracks: make([]*core.Track, 0)}
}

// Add appends a track and returns its index. Misaligned tracks are rejected.
func (s *Store) Add(t *core.Track) (int, error) {
	if t == nil {
		return -1, fmt.Errorf("add track: nil track")
	}
	if !t.Aligned() {
		return -1, fmt.Errorf("add track %q: %w (%d coordinates, %d timestamps)",
			t.Name, core.ErrMisaligned, len(t.Coordinates), len(t.Timestamps))
	}
	s.tracks = append(s.tracks, t)
	return len(s.tracks) - 1, nil
}

// Remove deletes the track at index and returns it. Trailing tracks shift
// down by one.
func (s *Store) Remove(index int) (*core.Track, error) {
	if !s.valid(index) {
		return nil, fmt.Errorf("remove track %d: %w", index, core.ErrOutOfRange)
	}
	removed := s.tracks[index]
	copy(s.tracks[index:], s.tracks[index+1:])
	s.tracks[len(s.tracks)-1] = nil
	s.tracks = s.tracks[:len(s.tracks)-1]
	return removed, nil
}

// SetVisible toggles a track's visibility.
func (s *Store) SetVisible(index int, visible bool) error {
	if !s.valid(index) {
		return fmt.Errorf("set visibility of track %d: %w", index, core.ErrOutOfRange)
	}
	s.tracks[index].Visible = visible
	return nil
}

// Get returns the track at index.
func (s *Store) Get(index int) (*core.Track, bool) {
	if !s.valid(index) {
		return nil, false
	}
	return s.tracks[index], true
}

// Len returns the number of tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// All returns the tracks in index order. The slice is shared with the store
// and must not be modified.
func (s *Store) All() []*core.Track {
	return s.tracks
}

// VisibleCount returns the number of visible tracks.
func (s *Store) VisibleCount() int {
	n := 0
	for _, t := range s.tracks {
		if t.Visible {
			n++
		}
	}
	return n
}

// ClearSynced drops every track's synchronized series.
func (s *Store) ClearSynced() {
	for _, t := range s.tracks {
		t.Synced = nil
	}
}

func (s *Store) valid(index int) bool {
	return index >= 0 && index < len(s.tracks)
}
