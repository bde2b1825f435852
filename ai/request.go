package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

// doJSON sends body (if any) as JSON with a bearer token and decodes the
// response into out. The Replicate runner talks to its API through it. Non-2xx responses become *core.BackendError carrying
// the upstream message when one can be found.
func doJSON(ctx context.Context, client *http.Client, log *slog.Logger, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		reader = bytes.NewReader(jsonBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(client, log, req, token, out)
}

func send(client *http.Client, log *slog.Logger, req *http.Request, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("getting response: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.Warn("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	log.Debug("response body", slog.Int("status", resp.StatusCode), sl.Text("body", string(body)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.BackendError{
			Message: upstreamMessage(body),
			Err:     fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// upstreamMessage digs the human readable message out of an error body:
// {"error":{"message":...}}, {"error":"..."} or {"detail":"..."}.
func upstreamMessage(body []byte) string {
	var nested struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error != nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &flat) == nil {
		if flat.Error != "" {
			return flat.Error
		}
		return flat.Detail
	}
	return ""
}

// download fetches a file into memory, refusing bodies over maxBytes.
func download(ctx context.Context, client *http.Client, fileURL string, maxBytes int64) ([]byte, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", "", fmt.Errorf("making request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("reading file: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", "", fmt.Errorf("file larger than %d bytes", maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	return data, fileName(fileURL, contentType), contentType, nil
}

// fileName derives a name with an extension, which the upload APIs use to
// detect the format.
func fileName(fileURL, contentType string) string {
	name := "file"
	if u, err := url.Parse(fileURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	if path.Ext(name) == "" && contentType != "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			name += exts[0]
		}
	}
	return name
}
