package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/registry"
)

const selectPrompt = "Please select a service"

// selectService offers the catalog. Nothing changes until a SelectService
// payload comes back.
func (t *turn) selectService() {
	all := t.services.All()
	choices := make([]Choice, len(all))
	for i, d := range all {
		choices[i] = Choice{Title: d.Title, Payload: SelectService{Index: i}.Encode()}
	}
	t.replyChoices(selectPrompt, choices)
}

// activeService is the guard used by every handler that needs a service:
// with none selected it prompts for one and reports false.
func (t *turn) activeService() (registry.Descriptor, bool) {
	if t.state.Service == nil {
		t.selectService()
		return registry.Descriptor{}, false
	}
	d, ok := t.services.Get(*t.state.Service)
	if !ok {
		t.log.Warn("session points at missing service", slog.Int("service", *t.state.Service))
		t.selectService()
		return registry.Descriptor{}, false
	}
	return d, true
}

func (t *turn) setService(index int) {
	d, ok := t.services.Get(index)
	if !ok {
		t.reply("Sorry. Service not found.")
		t.selectService()
		return
	}
	t.state.Service = &index
	t.resetServiceData()
	t.log.Info("service selected", slog.String("service", d.ID))
	t.showActiveService(d)
}

func (t *turn) resetServiceData() {
	t.state.Query = map[string]string{}
	t.state.Context = []core.Turn{}
	t.state.Data = map[string]string{}
	t.dirty = true
}

func (t *turn) clearServiceData() {
	t.resetServiceData()
	t.reply("Cleared. Let's start again.")
}

func (t *turn) showActiveService(d registry.Descriptor) {
	var b strings.Builder
	fmt.Fprintf(&b, "Active service: %s", d.Title)
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s", d.Description)
	}
	if len(d.Params) > 0 {
		b.WriteString("\n\nInputs:")
		for _, p := range d.Params {
			fmt.Fprintf(&b, "\n- %s (%s)", p.Name, p.Type)
		}
	}
	t.reply(b.String())

	for _, p := range d.Params {
		if len(p.Options) == 0 {
			continue
		}
		choices := make([]Choice, len(p.Options))
		for i, o := range p.Options {
			choices[i] = Choice{Title: o, Payload: SelectQueryOption{Field: p.Name, Value: o}.Encode()}
		}
		t.replyChoices(fmt.Sprintf("Choose %s:", p.Name), choices)
	}
}
