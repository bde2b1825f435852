package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

const defaultInstructions = "You are a helpful assistant. Answer in the language of the question."

// ChatGPT answers conversational services with OpenAI chat completions. The
// instructions func builds the system prompt for each turn, which is what
// tells the chat, agents and url flavours apart.
type ChatGPT struct {
	client       openai.Client
	model        string
	log          *slog.Logger
	instructions func(in core.AnswerInput) string
}

// clientOptions points the SDK at the configured endpoint; extra options
// come last so callers can override them.
func clientOptions(conf *core.Config, opts ...option.RequestOption) []option.RequestOption {
	base := []option.RequestOption{
		option.WithAPIKey(conf.OpenAIApiKey),
		option.WithBaseURL(strings.TrimSuffix(conf.OpenAIBaseURL, "/") + "/"),
	}
	return append(base, opts...)
}

func newChatGPT(conf *core.Config, log *slog.Logger, module string, instructions func(core.AnswerInput) string, opts ...option.RequestOption) *ChatGPT {
	return &ChatGPT{
		client:       openai.NewClient(clientOptions(conf, opts...)...),
		model:        conf.Model,
		log:          log.With(sl.Module(module)),
		instructions: instructions,
	}
}

// NewChat is the plain assistant.
func NewChat(conf *core.Config, log *slog.Logger, opts ...option.RequestOption) *ChatGPT {
	return newChatGPT(conf, log, "chat-gpt", func(core.AnswerInput) string {
		return defaultInstructions
	}, opts...)
}

// NewAgents plays the actor named in the session settings and may only rely
// on the listed tools.
func NewAgents(conf *core.Config, log *slog.Logger, opts ...option.RequestOption) *ChatGPT {
	return newChatGPT(conf, log, "agents", agentsInstructions, opts...)
}

// NewURLChat answers questions about the page stored in the session data.
func NewURLChat(conf *core.Config, log *slog.Logger, opts ...option.RequestOption) *ChatGPT {
	return newChatGPT(conf, log, "url-chat", pageInstructions, opts...)
}

func (c *ChatGPT) Answer(ctx context.Context, in core.AnswerInput) (string, error) {
	if len(in.Turns) == 0 {
		return "", fmt.Errorf("chat completion: no question")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Turns)+1)
	messages = append(messages, openai.SystemMessage(c.instructions(in)))
	for _, turn := range in.Turns {
		if turn.Role == core.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Opt(0.7),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.log.Error("chat completion",
				slog.Int("status", apiErr.StatusCode),
				slog.String("type", apiErr.Type),
				slog.String("code", apiErr.Code),
			)
			return "", &core.BackendError{Message: apiErr.Message, Err: err}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.log.With(
		slog.String("model", completion.Model),
		slog.Int("choices", len(completion.Choices)),
		slog.Int("turns", len(in.Turns)),
	).Info("chat completion")
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}

	response := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.log.Debug("outgoing message", sl.Text("text", response))
	return response, nil
}

func agentsInstructions(in core.AnswerInput) string {
	var b strings.Builder
	actor := strings.TrimSpace(in.Settings["agentsActor"])
	if actor == "" {
		actor = "a resourceful assistant"
	}
	fmt.Fprintf(&b, "You are %s. Stay in this role for the whole conversation.", actor)
	if tools := strings.TrimSpace(in.Settings["agentsTools"]); tools != "" {
		fmt.Fprintf(&b, "\nYou can use these tools: %s. Say which tool you use for each step and show its result.", tools)
	}
	return b.String()
}

func pageInstructions(in core.AnswerInput) string {
	var b strings.Builder
	b.WriteString("Answer the questions using the web page below. If the page does not contain the answer, say so.\n")
	if title := in.Data["title"]; title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if url := in.Data["url"]; url != "" {
		fmt.Fprintf(&b, "URL: %s\n", url)
	}
	b.WriteString("\n")
	b.WriteString(in.Data["content"])
	return b.String()
}
