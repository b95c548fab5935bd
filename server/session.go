package server

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/google/uuid"
)

// defaultPalette is the set of assignable user colors. Once exhausted,
// colors are derived from a hash so uniqueness is best-effort, not
// guaranteed.
var defaultPalette = []string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B",
	"#8B5CF6", "#EC4899", "#06B6D4", "#84CC16",
	"#F97316", "#6366F1", "#14B8A6", "#F43F5E",
	"#8B5A2B", "#4F46E5", "#059669", "#DC2626",
}

// Session is one connected user's live presence: identity, assigned color
// and current selection. Created on join, destroyed on disconnect.
type Session struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	CurrentCell string `json:"current_cell,omitempty"`
}

// Registry tracks active sessions and owns color assignment. It is not
// safe for concurrent use; the hub serializes access.
type Registry struct {
	sessions   map[string]*Session
	usedColors map[string]bool
	palette    []string
}

// NewRegistry creates an empty session registry using the default palette.
func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		usedColors: make(map[string]bool),
		palette:    defaultPalette,
	}
}

// Add registers a session under userID, assigning the first free palette
// color. An empty userID gets a generated one; an empty name gets a
// placeholder derived from the id. Re-joining an existing id replaces the
// prior session and reuses its color slot.
func (r *Registry) Add(userID, name string) *Session {
	if userID == "" {
		userID = uuid.NewString()
	}
	if name == "" {
		short := userID
		if len(short) > 8 {
			short = short[:8]
		}
		name = "User " + short
	}

	if prev, ok := r.sessions[userID]; ok {
		r.releaseColor(prev.Color)
	}

	s := &Session{
		UserID: userID,
		Name:   name,
		Color:  r.takeColor(),
	}
	r.sessions[userID] = s
	return s
}

// Remove deletes the session and releases its color. Returns the removed
// session, or nil if the id was not registered.
func (r *Registry) Remove(userID string) *Session {
	s, ok := r.sessions[userID]
	if !ok {
		return nil
	}
	delete(r.sessions, userID)
	r.releaseColor(s.Color)
	return s
}

// Get returns the session for userID, or nil.
func (r *Registry) Get(userID string) *Session {
	return r.sessions[userID]
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

// List returns all active sessions ordered by user id.
func (r *Registry) List() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// SetSelection records the session's current cell, superseding any prior
// selection it held.
func (r *Registry) SetSelection(userID, cellID string) bool {
	s, ok := r.sessions[userID]
	if !ok {
		return false
	}
	s.CurrentCell = cellID
	return true
}

func (r *Registry) takeColor() string {
	for _, c := range r.palette {
		if !r.usedColors[c] {
			r.usedColors[c] = true
			return c
		}
	}
	// Palette exhausted: derive a color from a fresh uuid.
	h := fnv.New32a()
	h.Write([]byte(uuid.NewString()))
	c := fmt.Sprintf("#%06X", h.Sum32()&0xFFFFFF)
	r.usedColors[c] = true
	return c
}

func (r *Registry) releaseColor(color string) {
	delete(r.usedColors, color)
}
