package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/holder"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/registry"
	"github.com/ngviethoang/ai-chatbot/storage"
)

// Backends are the execution strategies the engine can call. Any of them
// may be nil, the matching feature then answers "not available".
type Backends struct {
	Predictor   core.Predictor
	Images      core.ImageGenerator
	Transcriber core.Transcriber
	Extractor   core.Extractor
}

type Engine struct {
	log      *slog.Logger
	services *registry.Registry
	sessions *holder.SessionManager
	backends Backends
}

func New(log *slog.Logger, services *registry.Registry, sessions *holder.SessionManager, backends Backends) *Engine {
	return &Engine{
		log:      log.With(sl.Module("engine")),
		services: services,
		sessions: sessions,
		backends: backends,
	}
}

// turn is the handling of one event: a private copy of the session state
// that is saved once, after the handler returns, if it was changed.
type turn struct {
	*Engine
	ctx   context.Context
	event Event
	out   Replier
	state *storage.State
	log   *slog.Logger
	dirty bool
}

// Handle processes one inbound event to completion. Callers must not run
// two Handle calls for the same session at once.
func (e *Engine) Handle(ctx context.Context, ev Event, out Replier) {
	category := Classify(ev)
	t := &turn{
		Engine: e,
		ctx:    ctx,
		event:  ev,
		out:    out,
		log: e.log.With(
			slog.String("event", uuid.NewString()),
			sl.Session(ev.SessionID),
			slog.String("category", category.String()),
		),
	}
	state, err := e.sessions.Load(ev.SessionID)
	if err != nil {
		t.log.Error("event skipped", sl.Err(err))
		t.reply(loadFailed)
		return
	}
	t.state = state
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("handler panic", slog.String("panic", fmt.Sprint(r)))
		}
	}()

	t.log.Debug("incoming event", sl.Text("text", ev.Text))
	t.route(category)

	if t.dirty {
		if err := e.sessions.Save(t.state); err != nil {
			t.reply(saveFailed)
		}
	}
}

const (
	loadFailed = "Sorry! Can not read your session, please try again."
	saveFailed = "Sorry! Something went wrong, please try again."
)

func (t *turn) route(category Category) {
	switch category {
	case CategoryImage:
		t.handleImage()
	case CategoryAudio:
		t.handleAudio()
	case CategoryVideo:
		t.reply(fmt.Sprintf("received the video: %s", t.event.Video.URL))
	case CategoryFile:
		t.reply(fmt.Sprintf("received the file: %s", t.event.File.URL))
	case CategoryLocation:
		loc := t.event.Location
		t.reply(fmt.Sprintf("received the location: lat: %v, long: %v", loc.Lat, loc.Long))
	case CategoryPayload:
		t.handlePayload()
	case CategoryCommand:
		t.handleCommand()
	case CategorySubmission:
		t.submit()
	case CategoryText:
		t.handleText()
	}
}

func (t *turn) reply(text string) {
	if err := t.out.SendText(text); err != nil {
		t.log.Error("sending reply", sl.Err(err))
	}
}

func (t *turn) replyMedia(kind core.OutputKind, url string) {
	if err := t.out.SendMedia(kind, url); err != nil {
		t.log.Error("sending media", slog.String("kind", string(kind)), sl.Err(err))
	}
}

func (t *turn) replyChoices(text string, choices []Choice) {
	if err := t.out.SendChoices(text, choices); err != nil {
		t.log.Error("sending choices", sl.Err(err))
	}
}

func (t *turn) handlePayload() {
	p, err := DecodePayload(t.event.Payload)
	if err != nil {
		t.log.Warn("rejected payload", sl.Text("payload", t.event.Payload), sl.Err(err))
		t.reply("Sorry. This action is not supported.")
		return
	}
	switch p := p.(type) {
	case SelectService:
		t.setService(p.Index)
	case SelectQueryOption:
		if _, ok := t.activeService(); ok {
			t.setQueryOption(p.Field, p.Value)
		}
	case SelectURLAction:
		t.runURLAction(p.Index)
	}
}
