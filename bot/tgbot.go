package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/engine"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

const (
	errorResponse = "Sorry, I'm not feeling well today. Please try again later."
	fileError     = "Sorry! Can not get the file."
)

// Handler processes one event and answers through out.
type Handler interface {
	Handle(ctx context.Context, ev engine.Event, out engine.Replier)
}

type TgBot struct {
	api         *tgbotapi.BotAPI
	handler     Handler
	log         *slog.Logger
	botUsername string
	queue       *dispatcher
	stopOnce    sync.Once
}

func NewTgBot(conf *core.Config, handler Handler, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBotAPI(conf.TelegramApiKey)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	username := conf.Username
	if username == "" {
		username = api.Self.UserName
	}
	log = log.With(sl.Module("tgbot"))
	log.Info("telegram bot authorized", slog.String("username", username), sl.Secret(conf.TelegramApiKey))

	return &TgBot{
		api:         api,
		handler:     handler,
		log:         log,
		botUsername: username,
		queue:       newDispatcher(idleTimeout),
	}, nil
}

// Start reads updates until ctx is done or Stop is called. Events of one chat
// are handled in order, chats are handled concurrently.
func (t *TgBot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("getting updates: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.dispatch(ctx, update)
		}
	}
}

func (t *TgBot) Stop() {
	t.stopOnce.Do(func() {
		t.api.StopReceivingUpdates()
		t.queue.close()
	})
}

func (t *TgBot) dispatch(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// stops the spinner on the pressed button
		if _, err := t.api.AnswerCallbackQuery(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			t.log.Warn("answering callback", sl.Err(err))
		}
	}
	chat, ok := chatOf(update)
	if !ok || !t.accepts(update) {
		return
	}
	if err := t.queue.submit(chat.ID, func() { t.respond(ctx, chat.ID, update) }); err != nil {
		t.log.Warn("update dropped", slog.Int64("chat", chat.ID), sl.Err(err))
	}
}

// accepts keeps private chats and button presses; in groups only commands,
// mentions and replies to the bot are for us.
func (t *TgBot) accepts(update tgbotapi.Update) bool {
	if update.CallbackQuery != nil {
		return true
	}
	incoming := update.Message
	if incoming.Chat.IsPrivate() || incoming.IsCommand() {
		return true
	}
	return t.isMentioned(incoming.Text) || t.isMentioned(incoming.Caption) || t.isReplyToBot(incoming)
}

func (t *TgBot) respond(ctx context.Context, chatID int64, update tgbotapi.Update) {
	out := &replier{api: t.api, chatID: chatID}

	ev, err := toEvent(update, t.botUsername, t.api.GetFileDirectURL)
	if err != nil {
		t.log.Error("converting update", slog.Int64("chat", chatID), sl.Err(err))
		if err := out.SendText(fileError); err != nil {
			t.log.Error("sending message", sl.Err(err))
		}
		return
	}

	stop := t.typing(chatID)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			t.log.Error("handler panic", slog.Int64("chat", chatID), slog.Any("panic", r))
			_ = out.SendText(errorResponse)
		}
	}()
	t.handler.Handle(ctx, ev, out)
}

// typing shows the typing indicator every 5 seconds until the returned func
// is called.
func (t *TgBot) typing(chatID int64) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			if _, err := t.api.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
				t.log.Debug("sending chat action", sl.Err(err))
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// detect if we are mentioned in the message
func (t *TgBot) isMentioned(text string) bool {
	if t.botUsername != "" {
		return strings.Contains(text, "@"+t.botUsername)
	}
	return false
}

// detect if message is a reply to a message from the bot
func (t *TgBot) isReplyToBot(message *tgbotapi.Message) bool {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		return message.ReplyToMessage.From.UserName == t.botUsername
	}
	return false
}
