package engine

import (
	"net/url"
	"strings"

	"github.com/ngviethoang/ai-chatbot/lib/sl"
	"github.com/ngviethoang/ai-chatbot/registry"
)

// Keys of the session data used by the URL service.
const (
	dataURL     = "url"
	dataTitle   = "title"
	dataContent = "content"
)

const (
	urlNotFound   = "Sorry! URL not found."
	previewLength = 500
)

type URLAction struct {
	Title    string
	Subtitle string
	Prompt   string
	Preview  bool
}

// URLActions are offered after a page has been read. Prompts are sent to
// the URL service's answer capability, which supplies the page text.
var URLActions = []URLAction{
	{Title: "Summarize", Subtitle: "Summarize in a sentence", Prompt: "Summarize this article in 1 sentence."},
	{Title: "Explain", Subtitle: "Explain in 3 sentences", Prompt: "Explain this article in 3 sentences."},
	{Title: "Key points", Subtitle: "Key points of this article", Prompt: "Few key points of this article."},
	{Title: "Additional reading", Subtitle: "Additional research or reading", Prompt: "5 additional research or reading I need to deepen my understanding of the topic covered in this article."},
	{Title: "Categories", Subtitle: "Categories of this article", Prompt: "Categories of this article."},
	{Title: "Tones", Subtitle: "Tones of this article", Prompt: "Tone of this article."},
	{Title: "Preview", Subtitle: "Show the article's preview", Preview: true},
}

// IsURL reports whether text is a single absolute http(s) link.
func IsURL(text string) bool {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, " \n\t") {
		return false
	}
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (t *turn) handleURLText(d registry.Descriptor, text string) {
	if !IsURL(text) {
		t.converse(d, text)
		return
	}
	if t.backends.Extractor == nil {
		t.reply(notAvailable)
		return
	}
	page, err := t.backends.Extractor.Extract(t.ctx, strings.TrimSpace(text))
	if err != nil {
		t.log.Error("reading page", sl.Text("url", text), sl.Err(err))
		t.reply("Sorry! Can not read this page.")
		return
	}
	t.state.Data = map[string]string{
		dataURL:     page.URL,
		dataTitle:   page.Title,
		dataContent: page.Content,
	}
	t.dirty = true
	t.sendURLActions()
}

func (t *turn) sendURLActions() {
	choices := make([]Choice, len(URLActions))
	for i, a := range URLActions {
		choices[i] = Choice{Title: a.Title, Payload: SelectURLAction{Index: i}.Encode()}
	}
	text := "Choose one below or ask me about this article."
	if title := t.state.Data[dataTitle]; title != "" {
		text = title + "\n\n" + text
	}
	t.replyChoices(text, choices)
}

func (t *turn) runURLAction(index int) {
	if t.state.Data[dataURL] == "" {
		t.reply(urlNotFound)
		return
	}
	if index >= len(URLActions) {
		t.reply("Sorry. Action not found.")
		return
	}
	action := URLActions[index]
	if action.Preview {
		preview := sl.Clip(t.state.Data[dataContent], previewLength)
		if strings.TrimSpace(preview) == "" {
			preview = "Sorry! Can not get the result."
		}
		t.reply(preview)
		t.sendURLActions()
		return
	}
	d, ok := t.activeService()
	if !ok {
		return
	}
	if d.Type != registry.UrlExtraction {
		t.reply(urlNotFound)
		return
	}
	t.converse(d, action.Prompt)
	t.sendURLActions()
}
