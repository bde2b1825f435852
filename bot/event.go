package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/ngviethoang/ai-chatbot/engine"
)

// chatOf returns the chat an update belongs to.
func chatOf(update tgbotapi.Update) (*tgbotapi.Chat, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat, update.CallbackQuery.Message.Chat != nil
	case update.Message != nil:
		return update.Message.Chat, update.Message.Chat != nil
	}
	return nil, false
}

// toEvent converts an update into an engine event. fileURL resolves telegram
// file ids into downloadable URLs. The session is the chat, so everyone in a
// group shares one session.
func toEvent(update tgbotapi.Update, botUsername string, fileURL func(fileID string) (string, error)) (engine.Event, error) {
	chat, ok := chatOf(update)
	if !ok {
		return engine.Event{}, fmt.Errorf("update %d has no chat", update.UpdateID)
	}
	ev := engine.Event{SessionID: strconv.FormatInt(chat.ID, 10)}

	if cq := update.CallbackQuery; cq != nil {
		ev.Payload = cq.Data
		return ev, nil
	}

	msg := update.Message
	ev.Text = stripMention(msg.Text, botUsername)
	if ev.Text == "" {
		ev.Text = stripMention(msg.Caption, botUsername)
	}

	media := func(fileID string) (*engine.Media, error) {
		url, err := fileURL(fileID)
		if err != nil {
			return nil, fmt.Errorf("resolving file %s: %w", fileID, err)
		}
		return &engine.Media{URL: url}, nil
	}

	var err error
	switch {
	case msg.Photo != nil && len(*msg.Photo) > 0:
		ev.Image, err = media(largestPhoto(*msg.Photo).FileID)
	case msg.Voice != nil:
		ev.Audio, err = media(msg.Voice.FileID)
	case msg.Audio != nil:
		ev.Audio, err = media(msg.Audio.FileID)
	case msg.Video != nil:
		ev.Video, err = media(msg.Video.FileID)
	case msg.VideoNote != nil:
		ev.Video, err = media(msg.VideoNote.FileID)
	case msg.Document != nil:
		ev.File, err = media(msg.Document.FileID)
	case msg.Location != nil:
		ev.Location = &engine.Location{Lat: msg.Location.Latitude, Long: msg.Location.Longitude}
	}
	return ev, err
}

func largestPhoto(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

// stripMention removes "@bot" from commands and group messages so that
// "/help@bot" and "@bot hi" read as "/help" and "hi".
func stripMention(text, botUsername string) string {
	if botUsername == "" {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "@"+botUsername, ""))
}
