package holder

import (
	"fmt"
	"log/slog"

	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/storage"
)

// SessionManager hands out per-event copies of session state and writes them
// back whole. Sessions are created lazily and never deleted.
type SessionManager struct {
	storage storage.SessionStorage
	log     *slog.Logger
}

func NewSessionManager(store storage.SessionStorage, log *slog.Logger) *SessionManager {
	return &SessionManager{
		storage: store,
		log:     log.With(sl.Module("sessions")),
	}
}

// Load returns a private copy of the session, or a fresh empty state when
// the session does not exist yet. A read failure is returned as is: saving
// a fresh state in its place would wipe the stored session.
func (sm *SessionManager) Load(sessionId string) (*storage.State, error) {
	state, err := sm.storage.GetState(sessionId)
	if err != nil {
		sm.log.Error("getting session state", sl.Session(sessionId), sl.Err(err))
		return nil, fmt.Errorf("loading session %s: %w", sessionId, err)
	}
	if state == nil {
		return storage.NewState(sessionId), nil
	}
	state.Normalize()
	return state, nil
}

func (sm *SessionManager) Save(state *storage.State) error {
	if err := sm.storage.SetState(state.SessionId, state); err != nil {
		sm.log.Error("saving session state", sl.Session(state.SessionId), sl.Err(err))
		return err
	}
	return nil
}

func (sm *SessionManager) Close() error {
	return sm.storage.Close()
}
