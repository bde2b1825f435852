package engine

import (
	"fmt"
	"log/slog"

	"github.com/ngviethoang/ai-chatbot/registry"
)

// setValueForQuery stores value in the param declared with the event's
// modality. Services without such a param drop the value without a reply.
func (t *turn) setValueForQuery(d registry.Descriptor, modality registry.ParamType, value string) {
	field, ok := d.FieldFor(modality)
	if !ok {
		t.log.Debug("no param for value", slog.String("service", d.ID), slog.String("modality", string(modality)))
		return
	}
	t.state.Query[field] = value
	t.dirty = true
	t.reply(fmt.Sprintf("Got %s. Send ok when ready.", field))
}

// setQueryOption stores an explicitly named field from a button press.
func (t *turn) setQueryOption(field, value string) {
	t.state.Query[field] = value
	t.dirty = true
	t.reply(fmt.Sprintf("%s: %s", field, value))
}

func (t *turn) handleImage() {
	d, ok := t.activeService()
	if !ok {
		return
	}
	if d.Type.RequestStyle() {
		t.setValueForQuery(d, registry.ParamImage, t.event.Image.URL)
		return
	}
	t.reply(fmt.Sprintf("received the image: %s", t.event.Image.URL))
}

func (t *turn) handleAudio() {
	d, ok := t.activeService()
	if !ok {
		return
	}
	if d.Type.RequestStyle() {
		t.setValueForQuery(d, registry.ParamAudio, t.event.Audio.URL)
		return
	}
	if t.backends.Transcriber != nil && (d.Type.Conversational() || d.Type == registry.UrlExtraction) {
		t.transcribeAndAnswer(d)
		return
	}
	t.reply(fmt.Sprintf("received the audio: %s", t.event.Audio.URL))
}

func (t *turn) handleText() {
	d, ok := t.activeService()
	if !ok {
		return
	}
	switch d.Type {
	case registry.Prediction, registry.ImageGeneration:
		t.setValueForQuery(d, registry.ParamText, t.event.Text)
	case registry.UrlExtraction:
		t.handleURLText(d, t.event.Text)
	case registry.Chat, registry.Agents:
		t.converse(d, t.event.Text)
	default:
		t.converse(d, t.event.Text)
	}
}
