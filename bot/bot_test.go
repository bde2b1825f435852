package bot

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/engine"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fileURL(fileID string) (string, error) {
	if fileID == "broken" {
		return "", errors.New("file is too big")
	}
	return "https://files.test/" + fileID, nil
}

func privateMessage(msg *tgbotapi.Message) tgbotapi.Update {
	msg.Chat = &tgbotapi.Chat{ID: 42, Type: "private"}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func TestToEvent(t *testing.T) {
	photos := []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 960},
		{FileID: "medium", Width: 320, Height: 240},
	}
	tests := []struct {
		name   string
		update tgbotapi.Update
		want   engine.Event
	}{
		{
			name:   "text",
			update: privateMessage(&tgbotapi.Message{Text: "hello @brainy_bot"}),
			want:   engine.Event{SessionID: "42", Text: "hello"},
		},
		{
			name:   "photo with caption",
			update: privateMessage(&tgbotapi.Message{Photo: &photos, Caption: "make it blue"}),
			want: engine.Event{SessionID: "42", Text: "make it blue",
				Image: &engine.Media{URL: "https://files.test/large"}},
		},
		{
			name:   "voice",
			update: privateMessage(&tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "v1"}}),
			want:   engine.Event{SessionID: "42", Audio: &engine.Media{URL: "https://files.test/v1"}},
		},
		{
			name:   "audio",
			update: privateMessage(&tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "a1"}}),
			want:   engine.Event{SessionID: "42", Audio: &engine.Media{URL: "https://files.test/a1"}},
		},
		{
			name:   "video",
			update: privateMessage(&tgbotapi.Message{Video: &tgbotapi.Video{FileID: "m1"}}),
			want:   engine.Event{SessionID: "42", Video: &engine.Media{URL: "https://files.test/m1"}},
		},
		{
			name:   "document",
			update: privateMessage(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d1"}}),
			want:   engine.Event{SessionID: "42", File: &engine.Media{URL: "https://files.test/d1"}},
		},
		{
			name:   "location",
			update: privateMessage(&tgbotapi.Message{Location: &tgbotapi.Location{Latitude: 21.03, Longitude: 105.85}}),
			want:   engine.Event{SessionID: "42", Location: &engine.Location{Lat: 21.03, Long: 105.85}},
		},
		{
			name: "button press",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID:      "cb",
				Data:    "SelectService|2",
				Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: -100, Type: "group"}},
			}},
			want: engine.Event{SessionID: "-100", Payload: "SelectService|2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toEvent(tt.update, "brainy_bot", fileURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToEventErrors(t *testing.T) {
	_, err := toEvent(tgbotapi.Update{UpdateID: 7}, "", fileURL)
	assert.Error(t, err)

	_, err = toEvent(privateMessage(&tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "broken"}}), "", fileURL)
	assert.ErrorContains(t, err, "file is too big")
}

func TestAccepts(t *testing.T) {
	bot := &TgBot{botUsername: "brainy_bot"}
	group := &tgbotapi.Chat{ID: -1, Type: "supergroup"}

	assert.True(t, bot.accepts(privateMessage(&tgbotapi.Message{Text: "hi"})))
	assert.True(t, bot.accepts(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{}}))

	assert.False(t, bot.accepts(tgbotapi.Update{Message: &tgbotapi.Message{Chat: group, Text: "hi all"}}))
	assert.True(t, bot.accepts(tgbotapi.Update{Message: &tgbotapi.Message{Chat: group, Text: "@brainy_bot hi"}}))
	assert.True(t, bot.accepts(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     group,
		Text:     "/help",
		Entities: &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 5}},
	}}))
	assert.True(t, bot.accepts(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:           group,
		Text:           "and then?",
		ReplyToMessage: &tgbotapi.Message{From: &tgbotapi.User{UserName: "brainy_bot"}},
	}}))
	assert.False(t, bot.accepts(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:           group,
		Text:           "and then?",
		ReplyToMessage: &tgbotapi.Message{},
	}}))
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestReplier(t *testing.T) {
	api := &fakeSender{}
	r := &replier{api: api, chatID: 42}

	require.NoError(t, r.SendText("hello"))
	require.NoError(t, r.SendText("   "))
	require.NoError(t, r.SendMedia(core.OutputImage, "https://img/1.png"))
	require.NoError(t, r.SendMedia(core.OutputAudio, "https://a/1.mp3"))
	require.NoError(t, r.SendMedia(core.OutputVideo, "https://v/1.mp4"))
	require.NoError(t, r.SendChoices("Please select a service", []engine.Choice{
		{Title: "Chat", Payload: "SelectService|0"},
		{Title: "Image", Payload: "SelectService|1"},
	}))
	require.Len(t, api.sent, 5)

	text := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(42), text.ChatID)
	assert.Equal(t, "hello", text.Text)

	photo := api.sent[1].(tgbotapi.PhotoConfig)
	assert.Equal(t, "https://img/1.png", photo.FileID)
	assert.True(t, photo.UseExisting)
	assert.IsType(t, tgbotapi.AudioConfig{}, api.sent[2])
	assert.IsType(t, tgbotapi.VideoConfig{}, api.sent[3])

	choices := api.sent[4].(tgbotapi.MessageConfig)
	markup, ok := choices.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "Image", markup.InlineKeyboard[1][0].Text)
	require.NotNil(t, markup.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "SelectService|1", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestReplierSendError(t *testing.T) {
	r := &replier{api: &fakeSender{err: errors.New("forbidden")}, chatID: 1}
	assert.ErrorContains(t, r.SendText("hi"), "forbidden")
	assert.ErrorContains(t, r.SendChoices("pick", nil), "forbidden")
}

func TestSplitText(t *testing.T) {
	assert.Nil(t, splitText("", 10))
	assert.Equal(t, []string{"short"}, splitText("short", 10))

	parts := splitText("aaaa\nbbbbbbb", 8)
	assert.Equal(t, []string{"aaaa\n", "bbbbbbb"}, parts)

	long := strings.Repeat("x", 25)
	parts = splitText(long, 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, parts)
}

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := newDispatcher(time.Minute)

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 20; i++ {
		chatID := int64(i % 2)
		n := i
		require.NoError(t, d.submit(chatID, func() {
			mu.Lock()
			got[chatID] = append(got[chatID], n)
			mu.Unlock()
		}))
	}
	d.close()

	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got[0])
	assert.Equal(t, []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, got[1])
	assert.ErrorIs(t, d.submit(0, func() {}), errDispatcherClosed)
}

func TestDispatcherBusyChatDoesNotBlockOthers(t *testing.T) {
	d := newDispatcher(time.Minute)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, d.submit(1, func() {
		close(started)
		<-release
	}))
	<-started
	for i := 0; i < maxPending; i++ {
		require.NoError(t, d.submit(1, func() {}))
	}

	submitted := make(chan error, 1)
	go func() { submitted <- d.submit(1, func() {}) }()
	select {
	case err := <-submitted:
		assert.ErrorIs(t, err, errQueueFull)
	case <-time.After(time.Second):
		t.Fatal("submit to a full chat queue blocked")
	}

	ran := make(chan struct{})
	require.NoError(t, d.submit(2, func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("other chat did not run while chat 1 is busy")
	}

	close(release)
	d.close()
}

func TestDispatcherIdleWorkerExits(t *testing.T) {
	d := newDispatcher(10 * time.Millisecond)
	done := make(chan struct{})
	require.NoError(t, d.submit(5, func() { close(done) }))
	<-done

	assert.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.queues) == 0
	}, time.Second, 5*time.Millisecond)

	ran := make(chan struct{})
	require.NoError(t, d.submit(5, func() { close(ran) }))
	<-ran
	d.close()
}
