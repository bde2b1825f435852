package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngviethoang/ai-chatbot/core"
)

// replicateServer answers the create call with "starting" and then reports
// each status of polls in turn, repeating the last one.
func replicateServer(t *testing.T, polls []Prediction, polled *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /predictions", func(w http.ResponseWriter, r *http.Request) {
		var in PredictionInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v1", in.Version)
		assert.Equal(t, "Bearer r8-test", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Prediction{ID: "p1", Status: "starting"})
	})
	mux.HandleFunc("GET /predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		i := int(polled.Add(1)) - 1
		if i >= len(polls) {
			i = len(polls) - 1
		}
		_ = json.NewEncoder(w).Encode(polls[i])
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPredictPollsUntilSucceeded(t *testing.T) {
	var polled atomic.Int32
	srv := replicateServer(t, []Prediction{
		{ID: "p1", Status: "processing"},
		{ID: "p1", Status: "succeeded", Output: json.RawMessage(`"a cat sitting on a sofa"`)},
	}, &polled)

	r := NewReplicate(testConfig(srv.URL), testLogger())
	outputs, err := r.Predict(context.Background(), core.PredictionRequest{
		Version: "v1",
		Output:  core.OutputText,
		Input:   map[string]string{"image": "https://img/cat.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []core.Output{{Kind: core.OutputText, Value: "a cat sitting on a sofa"}}, outputs)
	assert.Equal(t, int32(2), polled.Load())
}

func TestPredictFailed(t *testing.T) {
	var polled atomic.Int32
	srv := replicateServer(t, []Prediction{
		{ID: "p1", Status: "failed", Error: "CUDA out of memory"},
	}, &polled)

	r := NewReplicate(testConfig(srv.URL), testLogger())
	_, err := r.Predict(context.Background(), core.PredictionRequest{Version: "v1"})
	assert.Equal(t, "CUDA out of memory", core.UserMessage(err, ""))
}

func TestPredictTimesOut(t *testing.T) {
	var polled atomic.Int32
	srv := replicateServer(t, []Prediction{{ID: "p1", Status: "processing"}}, &polled)

	conf := testConfig(srv.URL)
	conf.Prediction.Timeout = 30 * time.Millisecond
	r := NewReplicate(conf, testLogger())

	_, err := r.Predict(context.Background(), core.PredictionRequest{Version: "v1"})
	assert.ErrorIs(t, err, core.ErrTimeout)
	assert.Greater(t, polled.Load(), int32(0))
}

func TestPredictHonorsContext(t *testing.T) {
	var polled atomic.Int32
	srv := replicateServer(t, []Prediction{{ID: "p1", Status: "processing"}}, &polled)

	conf := testConfig(srv.URL)
	conf.Prediction.Timeout = time.Minute
	r := NewReplicate(conf, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := r.Predict(ctx, core.PredictionRequest{Version: "v1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecodeOutputs(t *testing.T) {
	tests := []struct {
		name string
		kind core.OutputKind
		raw  string
		want []core.Output
	}{
		{"null", core.OutputText, `null`, nil},
		{"string", core.OutputText, `"hello"`, []core.Output{{Kind: core.OutputText, Value: "hello"}}},
		{"text chunks", core.OutputText, `["hel","lo"]`, []core.Output{{Kind: core.OutputText, Value: "hello"}}},
		{"images", core.OutputImage, `["https://a.png","https://b.png"]`, []core.Output{
			{Kind: core.OutputImage, Value: "https://a.png"},
			{Kind: core.OutputImage, Value: "https://b.png"},
		}},
		{"audio file", core.OutputAudio, `"https://a.mp3"`, []core.Output{{Kind: core.OutputAudio, Value: "https://a.mp3"}}},
		{"transcription", core.OutputTranscription, `{"transcription":" hi there ","segments":[]}`, []core.Output{
			{Kind: core.OutputText, Value: "hi there"},
		}},
		{"no kind", "", `"x"`, []core.Output{{Kind: core.OutputText, Value: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeOutputs(tt.kind, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := decodeOutputs(core.OutputText, json.RawMessage(`{"caption":"a dog"}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Value, `"caption": "a dog"`)
}
