package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/registry"
)

const retryMessage = "Sorry! Please try again or create new conversation by /c"

// converse runs one conversational turn. Chat and Agents services send the
// stored context with the question and record the exchange on success; a
// failed turn leaves the context as it was.
func (t *turn) converse(d registry.Descriptor, question string) {
	if d.Answer == nil {
		t.reply(notAvailable)
		return
	}
	if d.Type == registry.UrlExtraction && t.state.Data[dataURL] == "" {
		t.reply(urlNotFound)
		return
	}

	q := core.Turn{Role: core.RoleUser, Content: question}
	in := core.AnswerInput{
		Turns:    []core.Turn{q},
		Data:     t.state.Data,
		Settings: t.state.Settings,
	}
	if d.Type.Conversational() {
		in.Turns = append(append([]core.Turn{}, t.state.Context...), q)
	}

	answer, err := d.Answer.Answer(t.ctx, in)
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			t.log.Error("getting answer", slog.String("service", d.ID), sl.Err(err))
		} else {
			t.log.Warn("empty answer", slog.String("service", d.ID))
		}
		t.reply(retryMessage)
		return
	}

	if d.Type.Conversational() {
		t.state.Context = append(t.state.Context, q, core.Turn{Role: core.RoleAssistant, Content: answer})
		t.dirty = true
	}
	t.log.Info("answer", sl.Text("text", answer), slog.Int("context", len(t.state.Context)))
	t.reply(answer)
}

// transcribeAndAnswer turns a voice message into a question for the active
// conversational or URL service.
func (t *turn) transcribeAndAnswer(d registry.Descriptor) {
	lang := TranscriptionLanguage(t.state.Settings)
	text, err := t.backends.Transcriber.Transcribe(t.ctx, t.event.Audio.URL, lang)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			t.log.Error("transcribing audio", sl.Err(err))
		}
		t.reply("Error getting transcription!")
		return
	}
	text = strings.TrimSpace(text)
	t.reply(fmt.Sprintf("_%s_", text))
	if d.Type == registry.UrlExtraction {
		t.handleURLText(d, text)
		return
	}
	t.converse(d, text)
}
