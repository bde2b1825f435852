package engine

import (
	"regexp"
	"strings"
)

var commandPattern = regexp.MustCompile(`^[/.](\w+)(?:\s((?s).+))?`)

const submitText = "ok"

// Classify assigns the event its category. Media wins over text so a caption
// that looks like a command is never run as one.
func Classify(ev Event) Category {
	switch {
	case ev.Image != nil:
		return CategoryImage
	case ev.Audio != nil:
		return CategoryAudio
	case ev.Video != nil:
		return CategoryVideo
	case ev.File != nil:
		return CategoryFile
	case ev.Location != nil:
		return CategoryLocation
	case ev.Payload != "":
		return CategoryPayload
	case commandPattern.MatchString(ev.Text):
		return CategoryCommand
	case strings.EqualFold(ev.Text, submitText):
		return CategorySubmission
	}
	return CategoryText
}
