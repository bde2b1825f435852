package holder

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngviethoang/ai-chatbot/storage"
)

type brokenStorage struct{}

func (brokenStorage) GetState(string) (*storage.State, error) { return nil, errors.New("down") }
func (brokenStorage) SetState(string, *storage.State) error   { return errors.New("down") }
func (brokenStorage) Close() error                             { return nil }

func newManager(s storage.SessionStorage) *SessionManager {
	return NewSessionManager(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func load(t *testing.T, sm *SessionManager, id string) *storage.State {
	t.Helper()
	st, err := sm.Load(id)
	require.NoError(t, err)
	return st
}

func TestLoadCreatesLazily(t *testing.T) {
	sm := newManager(storage.NewMemoryStorage())
	st := load(t, sm, "42")
	assert.Equal(t, "42", st.SessionId)
	assert.Nil(t, st.Service)
	assert.Empty(t, st.Query)
	assert.Empty(t, st.Context)
}

func TestLoadModifySave(t *testing.T) {
	sm := newManager(storage.NewMemoryStorage())

	st := load(t, sm, "42")
	st.Query["text"] = "hello"
	// not saved yet
	assert.Empty(t, load(t, sm, "42").Query)

	require.NoError(t, sm.Save(st))
	assert.Equal(t, "hello", load(t, sm, "42").Query["text"])
}

func TestLoadReportsReadFailure(t *testing.T) {
	sm := newManager(brokenStorage{})
	st, err := sm.Load("42")
	assert.ErrorContains(t, err, "down")
	assert.Nil(t, st)
	assert.Error(t, sm.Save(storage.NewState("42")))
}
