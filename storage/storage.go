package storage

import (
	"time"

	"github.com/ngviethoang/ai-chatbot/core"
)

// State is everything the bot remembers about one conversation.
type State struct {
	SessionId string            `bson:"session_id" json:"-"`
	Service   *int              `bson:"service,omitempty" json:"service"`
	Query     map[string]string `bson:"query" json:"query"`
	Context   []core.Turn       `bson:"context" json:"context"`
	Data      map[string]string `bson:"data" json:"data"`
	Settings  map[string]string `bson:"settings" json:"settings"`
	UpdatedAt time.Time         `bson:"updated_at" json:"-"`
}

func NewState(sessionId string) *State {
	return &State{
		SessionId: sessionId,
		Query:     map[string]string{},
		Context:   []core.Turn{},
		Data:      map[string]string{},
		Settings:  map[string]string{},
	}
}

// Clone returns a deep copy so callers can modify it without touching the
// stored value.
func (s *State) Clone() *State {
	cc := &State{
		SessionId: s.SessionId,
		Query:     copyMap(s.Query),
		Context:   append([]core.Turn{}, s.Context...),
		Data:      copyMap(s.Data),
		Settings:  copyMap(s.Settings),
		UpdatedAt: s.UpdatedAt,
	}
	if s.Service != nil {
		id := *s.Service
		cc.Service = &id
	}
	return cc
}

// Normalize replaces nil collections left by decoders with empty ones.
func (s *State) Normalize() {
	if s.Query == nil {
		s.Query = map[string]string{}
	}
	if s.Context == nil {
		s.Context = []core.Turn{}
	}
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	if s.Settings == nil {
		s.Settings = map[string]string{}
	}
}

func copyMap(m map[string]string) map[string]string {
	cc := make(map[string]string, len(m))
	for k, v := range m {
		cc[k] = v
	}
	return cc
}

// SessionStorage persists whole session states. GetState returns nil when
// the session was never saved.
type SessionStorage interface {
	GetState(sessionId string) (*State, error)
	SetState(sessionId string, state *State) error
	Close() error
}
