package engine

import (
	"strings"
)

// Command is a parsed slash directive such as "/settings --autoSpeak true".
type Command struct {
	Name    string
	Content string
}

// ParseCommand matches (/|.)word( content)? and lower-cases the word.
func ParseCommand(text string) (Command, bool) {
	m := commandPattern.FindStringSubmatch(text)
	if m == nil {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(m[1]), Content: m[2]}, true
}

const (
	helpText = "Commands\n" +
		"[s] Select a service\n" +
		"[a] Active service\n" +
		"[c] Clear context\n" +
		"[d] Debug\n" +
		"[settings] Show or change settings\n\n" +
		"Send ok to run the active service with the inputs given so far."
	commandNotFound = "Sorry. Command not found."
)

func (t *turn) handleCommand() {
	cmd, _ := ParseCommand(t.event.Text)
	switch cmd.Name {
	case "h", "help", "start":
		t.reply(helpText)
	case "s", "service":
		t.selectService()
	case "a", "active":
		if d, ok := t.activeService(); ok {
			t.showActiveService(d)
		}
	case "c", "clear":
		if _, ok := t.activeService(); ok {
			t.clearServiceData()
		}
	case "d", "debug":
		t.reply(TruncatedJSON(t.state))
	case "settings":
		t.handleSettings(cmd.Content)
	default:
		t.reply(commandNotFound)
	}
}
