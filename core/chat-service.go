package core

import "context"

// Turn is one entry of a conversation context.
type Turn struct {
	Role    string `json:"role" bson:"role"`
	Content string `json:"content" bson:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AnswerInput is what a conversational service sees for one turn: the prior
// turns with the new question appended, plus the session side data and
// settings it may need (page text for URL services, tools for agents).
type AnswerInput struct {
	Turns    []Turn
	Data     map[string]string
	Settings map[string]string
}

// Answerer is the answer capability of a conversational service. An empty
// answer is a failure, same as a non-nil error.
type Answerer interface {
	Answer(ctx context.Context, in AnswerInput) (string, error)
}

type OutputKind string

const (
	OutputText          OutputKind = "text"
	OutputImage         OutputKind = "image"
	OutputAudio         OutputKind = "audio"
	OutputVideo         OutputKind = "video"
	OutputTranscription OutputKind = "transcription"
)

// Output is one result of an execution strategy, relayed to the user as text
// or media depending on Kind.
type Output struct {
	Kind  OutputKind
	Value string
}

// PredictionRequest carries everything a request-style backend needs.
type PredictionRequest struct {
	Version string
	Output  OutputKind
	Input   map[string]string
}

type Predictor interface {
	Predict(ctx context.Context, req PredictionRequest) ([]Output, error)
}

type ImageMode int

const (
	ImageCreate ImageMode = iota
	ImageEdit
	ImageVariation
)

func (m ImageMode) String() string {
	switch m {
	case ImageEdit:
		return "edit"
	case ImageVariation:
		return "variation"
	default:
		return "create"
	}
}

type ImageGenerator interface {
	GenerateImages(ctx context.Context, mode ImageMode, fields map[string]string) ([]Output, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (string, error)
}

// Page is the readable content extracted from a web page.
type Page struct {
	URL     string
	Title   string
	Content string
}

type Extractor interface {
	Extract(ctx context.Context, url string) (*Page, error)
}
