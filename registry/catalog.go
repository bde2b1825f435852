package registry

import (
	"fmt"
	"strings"

	"github.com/ngviethoang/ai-chatbot/core"
)

// Answerers maps answer capability names used in the catalog to backends.
type Answerers map[string]core.Answerer

const (
	AnswerChat   = "chat"
	AnswerAgents = "agents"
	AnswerURL    = "url"
)

// Replicate model versions used by the built-in catalog.
const (
	blipVersion    = "2e1dddc8621f72155f24cf2e0adbde548458d3cab9f00c0139eea840d0ac4746"
	whisperVersion = "4d50797290df275329f202e48c76360b3f22b08d28c196cbc54600319435f8d2"
)

// Default is the catalog used when the config declares no services.
func Default(answers Answerers) []Descriptor {
	return []Descriptor{
		{
			ID:          "chat",
			Title:       "Chat",
			Description: "Talk with the assistant. Every message is a turn, the conversation is remembered until /clear.",
			Type:        Chat,
			Answer:      answers[AnswerChat],
		},
		{
			ID:          "agents",
			Title:       "Agents",
			Description: "Assistant with tools. Set tools with /settings --agentsTools <tools>.",
			Type:        Agents,
			Answer:      answers[AnswerAgents],
		},
		{
			ID:          "url",
			Title:       "Read a web page",
			Description: "Send a link, then pick an action or ask anything about the page.",
			Type:        UrlExtraction,
			Answer:      answers[AnswerURL],
		},
		{
			ID:          "image",
			Title:       "Image generation",
			Description: "Send a prompt (and an image for edit/variation), choose options, then send ok.",
			Type:        ImageGeneration,
			Output:      core.OutputImage,
			Params: []Param{
				{Name: "prompt", Type: ParamText},
				{Name: "image", Type: ParamImage},
				{Name: "model", Type: ParamOption, Options: []string{"create", "edit", "variation"}},
				{Name: "n", Type: ParamOption, Options: []string{"1", "2", "3"}},
			},
		},
		{
			ID:          "caption",
			Title:       "Image captioning",
			Description: "Send an image, optionally a question, then send ok.",
			Type:        Prediction,
			Version:     blipVersion,
			Output:      core.OutputText,
			Params: []Param{
				{Name: "image", Type: ParamImage},
				{Name: "task", Type: ParamOption, Options: []string{"image_captioning", "visual_question_answering"}},
				{Name: "question", Type: ParamText},
			},
		},
		{
			ID:          "transcribe",
			Title:       "Speech to text",
			Description: "Send a voice message or audio file, then send ok.",
			Type:        Prediction,
			Version:     whisperVersion,
			Output:      core.OutputTranscription,
			Params: []Param{
				{Name: "audio", Type: ParamAudio},
			},
		},
	}
}

// FromConfig builds the registry from configured services, falling back to
// the built-in catalog when none are declared.
func FromConfig(services []core.ServiceConfig, answers Answerers) (*Registry, error) {
	if len(services) == 0 {
		return New(Default(answers)...), nil
	}
	descs := make([]Descriptor, 0, len(services))
	for i, sc := range services {
		t, err := ParseType(sc.Type)
		if err != nil {
			return nil, fmt.Errorf("service %d (%s): %w", i, sc.Id, err)
		}
		d := Descriptor{
			ID:          sc.Id,
			Title:       sc.Title,
			Description: sc.Description,
			Type:        t,
			Version:     sc.Version,
			Output:      core.OutputKind(sc.Output),
		}
		if d.Title == "" {
			d.Title = sc.Id
		}
		for _, pc := range sc.Params {
			pt := ParamType(pc.Type)
			switch pt {
			case ParamText, ParamImage, ParamAudio, ParamOption:
			default:
				return nil, fmt.Errorf("service %s: param %s: unknown type %q", sc.Id, pc.Name, pc.Type)
			}
			if pt == ParamOption {
				if err := checkOptions(pc); err != nil {
					return nil, fmt.Errorf("service %s: param %s: %w", sc.Id, pc.Name, err)
				}
			}
			d.Params = append(d.Params, Param{Name: pc.Name, Type: pt, Options: pc.Options})
		}
		if sc.Answer != "" {
			a, ok := answers[sc.Answer]
			if !ok {
				return nil, fmt.Errorf("service %s: unknown answer capability %q", sc.Id, sc.Answer)
			}
			d.Answer = a
		} else if t.Conversational() || t == UrlExtraction {
			d.Answer = answers[t.String()]
		}
		descs = append(descs, d)
	}
	return New(descs...), nil
}

// MaxChoiceBytes is the largest button payload telegram accepts.
const MaxChoiceBytes = 64

// optionPayloadOverhead is what the engine adds around field and value when
// it encodes an option button: "SelectQueryOption|<field>|<value>".
const optionPayloadOverhead = len("SelectQueryOption||")

// checkOptions rejects option params whose buttons could not be sent or
// decoded back.
func checkOptions(pc core.ParamConfig) error {
	if strings.Contains(pc.Name, "|") {
		return fmt.Errorf("option name must not contain %q", "|")
	}
	for _, v := range pc.Options {
		if n := optionPayloadOverhead + len(pc.Name) + len(v); n > MaxChoiceBytes {
			return fmt.Errorf("option %q: button payload is %d bytes, limit is %d", v, n, MaxChoiceBytes)
		}
	}
	return nil
}
