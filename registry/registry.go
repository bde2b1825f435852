package registry

import (
	"fmt"
	"strings"

	"github.com/ngviethoang/ai-chatbot/core"
)

// Type selects how a service consumes input and what "ok" means for it.
type Type int

const (
	Prediction Type = iota
	ImageGeneration
	Chat
	Agents
	UrlExtraction
)

// Types lists every service type; switches over Type are tested against it.
var Types = []Type{Prediction, ImageGeneration, Chat, Agents, UrlExtraction}

func (t Type) String() string {
	switch t {
	case Prediction:
		return "prediction"
	case ImageGeneration:
		return "image"
	case Chat:
		return "chat"
	case Agents:
		return "agents"
	case UrlExtraction:
		return "url"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown service type %q", s)
}

// Conversational types keep a turn context.
func (t Type) Conversational() bool {
	return t == Chat || t == Agents
}

// RequestStyle types assemble a query and run on "ok".
func (t Type) RequestStyle() bool {
	return t == Prediction || t == ImageGeneration
}

type ParamType string

const (
	ParamText   ParamType = "text"
	ParamImage  ParamType = "image"
	ParamAudio  ParamType = "audio"
	ParamOption ParamType = "option"
)

type Param struct {
	Name    string
	Type    ParamType
	Options []string
}

// Descriptor is one read-only catalog entry.
type Descriptor struct {
	ID          string
	Title       string
	Description string
	Type        Type
	Version     string
	Output      core.OutputKind
	Params      []Param
	Answer      core.Answerer
}

// FieldFor returns the name of the first param declared with type t.
func (d Descriptor) FieldFor(t ParamType) (string, bool) {
	for _, p := range d.Params {
		if p.Type == t {
			return p.Name, true
		}
	}
	return "", false
}

type Registry struct {
	services []Descriptor
}

func New(services ...Descriptor) *Registry {
	return &Registry{services: append([]Descriptor(nil), services...)}
}

func (r *Registry) Get(id int) (Descriptor, bool) {
	if id < 0 || id >= len(r.services) {
		return Descriptor{}, false
	}
	return r.services[id], true
}

func (r *Registry) Len() int {
	return len(r.services)
}

func (r *Registry) All() []Descriptor {
	return append([]Descriptor(nil), r.services...)
}
