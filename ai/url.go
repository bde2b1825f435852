package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]+`)
)

// PageReader downloads a web page and keeps its readable text.
type PageReader struct {
	http     *http.Client
	maxBytes int64
	maxChars int
	log      *slog.Logger
}

func NewPageReader(conf *core.Config, log *slog.Logger) *PageReader {
	return &PageReader{
		http:     &http.Client{Timeout: 30 * time.Second},
		maxBytes: conf.URL.MaxBytes,
		maxChars: conf.URL.MaxChars,
		log:      log.With(sl.Module("page-reader")),
	}
}

func (p *PageReader) Extract(ctx context.Context, pageURL string) (*core.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ai-chatbot/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching page: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}

	page := &core.Page{URL: pageURL}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		page.Content = string(body)
	} else {
		doc, err := html.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parsing page: %w", err)
		}
		page.Title, page.Content = readable(doc)
	}
	page.Content = sl.Clip(cleanText(page.Content), p.maxChars)

	p.log.With(
		slog.String("url", pageURL),
		slog.Int("bytes", len(body)),
		slog.Int("chars", len([]rune(page.Content))),
	).Info("page extracted", sl.Text("title", page.Title))
	if page.Content == "" {
		return nil, fmt.Errorf("page %s has no readable text", pageURL)
	}
	return page, nil
}

// readable returns the document title and the text of its main content: the
// first <article> or <main> element if there is one, the whole body
// otherwise.
func readable(doc *html.Node) (string, string) {
	title := ""
	if t := find(doc, "title"); t != nil {
		var sb strings.Builder
		writeText(t, &sb, 0)
		title = strings.TrimSpace(sb.String())
	}

	root := find(doc, "article")
	if root == nil {
		root = find(doc, "main")
	}
	if root == nil {
		root = doc
	}
	var sb strings.Builder
	writeText(root, &sb, 0)
	return title, sb.String()
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func writeText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "form", "title":
			return
		case "p", "div", "section", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "tr":
			sb.WriteString("\n\n")
		case "br", "li":
			sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb, depth+1)
	}
}

func cleanText(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
