package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/engine"
)

// telegram rejects longer messages
const maxMessageLength = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// replier answers into one chat.
type replier struct {
	api    sender
	chatID int64
}

func (r *replier) SendText(text string) error {
	for _, part := range splitText(text, maxMessageLength) {
		if _, err := r.api.Send(tgbotapi.NewMessage(r.chatID, part)); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
	return nil
}

// SendMedia shares a file by URL; telegram fetches it itself.
func (r *replier) SendMedia(kind core.OutputKind, url string) error {
	var msg tgbotapi.Chattable
	switch kind {
	case core.OutputImage:
		msg = tgbotapi.NewPhotoShare(r.chatID, url)
	case core.OutputAudio:
		msg = tgbotapi.NewAudioShare(r.chatID, url)
	case core.OutputVideo:
		msg = tgbotapi.NewVideoShare(r.chatID, url)
	default:
		msg = tgbotapi.NewDocumentShare(r.chatID, url)
	}
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("sending %s: %w", kind, err)
	}
	return nil
}

// SendChoices shows one inline button per row.
func (r *replier) SendChoices(text string, choices []engine.Choice) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	if len(choices) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
		for _, c := range choices {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c.Title, c.Payload),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := r.api.Send(msg); err != nil {
		return fmt.Errorf("sending choices: %w", err)
	}
	return nil
}

// splitText cuts text into parts of at most n runes, preferring line breaks.
// Blank text yields no parts.
func splitText(text string, n int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > n {
		cut := n
		for i := n; i > n/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(parts, string(runes))
}
