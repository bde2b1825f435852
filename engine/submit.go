package engine

import (
	"strings"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/registry"
)

// modelField picks the image sub-mode and is not sent to the generator.
const modelField = "model"

const (
	notAvailable  = "Sorry! This service is not available."
	backendFailed = "Error! Please try again."
	noResult      = "Sorry! No result."
)

// submit runs on "ok". Request-style services execute their query as is,
// without checking that every param was given; every other type treats the
// "ok" as an ordinary chat line.
func (t *turn) submit() {
	d, ok := t.activeService()
	if !ok {
		return
	}
	switch d.Type {
	case registry.Prediction:
		t.runPrediction(d)
	case registry.ImageGeneration:
		t.runImageGeneration(d)
	case registry.Chat, registry.Agents, registry.UrlExtraction:
		t.converse(d, t.event.Text)
	default:
		t.converse(d, t.event.Text)
	}
}

func (t *turn) runPrediction(d registry.Descriptor) {
	if t.backends.Predictor == nil {
		t.reply(notAvailable)
		return
	}
	req := core.PredictionRequest{
		Version: d.Version,
		Output:  d.Output,
		Input:   copyQuery(t.state.Query, ""),
	}
	t.reply("Processing...")
	outputs, err := t.backends.Predictor.Predict(t.ctx, req)
	if err != nil {
		t.log.Error("prediction failed", sl.Err(err))
		t.reply(core.UserMessage(err, backendFailed))
		return
	}
	t.relay(outputs)
}

func (t *turn) runImageGeneration(d registry.Descriptor) {
	if t.backends.Images == nil {
		t.reply(notAvailable)
		return
	}
	mode := ParseImageMode(t.state.Query[modelField])
	fields := copyQuery(t.state.Query, modelField)
	outputs, err := t.backends.Images.GenerateImages(t.ctx, mode, fields)
	if err != nil {
		t.log.Error("image generation failed", sl.Err(err))
		t.reply(core.UserMessage(err, backendFailed))
		return
	}
	t.relay(outputs)
}

func (t *turn) relay(outputs []core.Output) {
	if len(outputs) == 0 {
		t.reply(noResult)
		return
	}
	for _, o := range outputs {
		switch o.Kind {
		case core.OutputImage, core.OutputAudio, core.OutputVideo:
			t.replyMedia(o.Kind, o.Value)
		default:
			t.reply(o.Value)
		}
	}
}

// ParseImageMode reads the reserved model field: e/edit, v/variation,
// anything else creates.
func ParseImageMode(model string) core.ImageMode {
	switch strings.ToLower(model) {
	case "e", "edit":
		return core.ImageEdit
	case "v", "variation":
		return core.ImageVariation
	}
	return core.ImageCreate
}

func copyQuery(q map[string]string, skip string) map[string]string {
	cc := make(map[string]string, len(q))
	for k, v := range q {
		if k != skip {
			cc[k] = v
		}
	}
	return cc
}
