package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngviethoang/ai-chatbot/core"
)

func imageResponse(w http.ResponseWriter, urls ...string) {
	data := make([]map[string]string, 0, len(urls))
	for _, u := range urls {
		data = append(data, map[string]string{"url": u})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"created": 1700000000, "data": data})
}

func TestDallECreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req struct {
			Model          string `json:"model"`
			Prompt         string `json:"prompt"`
			N              int    `json:"n"`
			Size           string `json:"size"`
			ResponseFormat string `json:"response_format"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-2", req.Model)
		assert.Equal(t, "a red fox", req.Prompt)
		assert.Equal(t, 2, req.N)
		assert.Equal(t, "512x512", req.Size)
		assert.Equal(t, "url", req.ResponseFormat)
		imageResponse(w, "https://img/1.png", "https://img/2.png")
	}))
	defer srv.Close()

	d := NewDallE(testConfig(srv.URL), testLogger(), noRetries)
	outputs, err := d.GenerateImages(context.Background(), core.ImageCreate, map[string]string{
		"prompt": "a red fox",
		"n":      "2",
	})
	require.NoError(t, err)
	assert.Equal(t, []core.Output{
		{Kind: core.OutputImage, Value: "https://img/1.png"},
		{Kind: core.OutputImage, Value: "https://img/2.png"},
	}, outputs)
}

func TestDallEVariationUploadsImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png bytes"))
	})
	mux.HandleFunc("/images/variations", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "1", r.FormValue("n"))
		assert.Equal(t, "512x512", r.FormValue("size"))
		assert.Empty(t, r.FormValue("prompt"))
		file, header, err := r.FormFile("image")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "png bytes", string(data))
			assert.Equal(t, "cat.png", header.Filename)
		}
		imageResponse(w, "https://img/v.png")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDallE(testConfig(srv.URL), testLogger(), noRetries)
	outputs, err := d.GenerateImages(context.Background(), core.ImageVariation, map[string]string{
		"image": srv.URL + "/files/cat.png",
		"n":     "many",
	})
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "https://img/v.png", outputs[0].Value)
}

func TestDallEEditSendsPrompt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png bytes"))
	})
	mux.HandleFunc("/images/edits", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "add a hat", r.FormValue("prompt"))
		assert.Equal(t, "dall-e-2", r.FormValue("model"))
		imageResponse(w, "https://img/e.png")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDallE(testConfig(srv.URL), testLogger(), noRetries)
	outputs, err := d.GenerateImages(context.Background(), core.ImageEdit, map[string]string{
		"image":  srv.URL + "/files/cat.png",
		"prompt": "add a hat",
	})
	require.NoError(t, err)
	assert.Equal(t, []core.Output{{Kind: core.OutputImage, Value: "https://img/e.png"}}, outputs)
}

func TestDallEEditNeedsImage(t *testing.T) {
	d := NewDallE(testConfig("http://127.0.0.1:1"), testLogger(), noRetries)
	_, err := d.GenerateImages(context.Background(), core.ImageEdit, map[string]string{"prompt": "hat"})
	assert.Equal(t, "Please send an image first.", core.UserMessage(err, ""))
}

func TestDallEAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Your request was rejected by the safety system.","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	d := NewDallE(testConfig(srv.URL), testLogger(), noRetries)
	_, err := d.GenerateImages(context.Background(), core.ImageCreate, map[string]string{"prompt": "x"})
	var be *core.BackendError
	require.ErrorAs(t, err, &be)
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, 1, imageCount(""))
	assert.Equal(t, 1, imageCount("zero"))
	assert.Equal(t, 1, imageCount("0"))
	assert.Equal(t, 3, imageCount(" 3 "))
}
