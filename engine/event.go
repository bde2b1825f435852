package engine

import (
	"fmt"

	"github.com/ngviethoang/ai-chatbot/core"
)

// Event is one inbound message from the chat channel. At most one media
// field is expected to be set; Classify decides which one counts.
type Event struct {
	SessionID string
	Text      string
	Payload   string
	Image     *Media
	Audio     *Media
	Video     *Media
	File      *Media
	Location  *Location
}

type Media struct {
	URL string
}

type Location struct {
	Lat  float64
	Long float64
}

type Category int

const (
	CategoryImage Category = iota
	CategoryAudio
	CategoryVideo
	CategoryFile
	CategoryLocation
	CategoryPayload
	CategoryCommand
	CategorySubmission
	CategoryText
)

func (c Category) String() string {
	switch c {
	case CategoryImage:
		return "image"
	case CategoryAudio:
		return "audio"
	case CategoryVideo:
		return "video"
	case CategoryFile:
		return "file"
	case CategoryLocation:
		return "location"
	case CategoryPayload:
		return "payload"
	case CategoryCommand:
		return "command"
	case CategorySubmission:
		return "submission"
	case CategoryText:
		return "text"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Choice is one selectable button; pressing it sends Payload back.
type Choice struct {
	Title   string
	Payload string
}

// Replier sends answers back to the conversation an event came from.
type Replier interface {
	SendText(text string) error
	SendMedia(kind core.OutputKind, url string) error
	SendChoices(text string, choices []Choice) error
}
