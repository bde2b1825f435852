package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

// whisper accepts uploads up to 25MB
const maxAudioBytes = 25 << 20

// Whisper turns voice messages into text with the OpenAI transcription API.
type Whisper struct {
	client openai.Client
	http   *http.Client
	model  string
	log    *slog.Logger
}

func NewWhisper(conf *core.Config, log *slog.Logger, opts ...option.RequestOption) *Whisper {
	return &Whisper{
		client: openai.NewClient(clientOptions(conf, opts...)...),
		http:   &http.Client{Timeout: time.Minute},
		model:  conf.WhisperModel,
		log:    log.With(sl.Module("whisper")),
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audioURL, language string) (string, error) {
	data, name, contentType, err := download(ctx, w.http, audioURL, maxAudioBytes)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), name, contentType),
		Model: openai.AudioModel(w.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	transcription, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &core.BackendError{Message: apiErr.Message, Err: err}
		}
		return "", fmt.Errorf("transcription: %w", err)
	}

	text := strings.TrimSpace(transcription.Text)
	w.log.With(
		slog.String("file", name),
		slog.Int("bytes", len(data)),
		slog.String("language", language),
	).Info("transcription", sl.Text("text", text))
	if text == "" {
		return "", fmt.Errorf("transcription: empty text")
	}
	return text, nil
}
