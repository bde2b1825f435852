package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusCanceled  = "canceled"
)

type PredictionInput struct {
	Version string            `json:"version"`
	Input   map[string]string `json:"input"`
}

// Prediction is the prediction object as returned on create and on poll.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

func (p *Prediction) done() bool {
	switch p.Status {
	case statusSucceeded, statusFailed, statusCanceled:
		return true
	}
	return false
}

// Replicate runs hosted models: it creates a prediction, then polls it
// until it reaches a terminal status or the timeout passes.
type Replicate struct {
	baseURL  string
	token    string
	interval time.Duration
	timeout  time.Duration
	http     *http.Client
	log      *slog.Logger
}

func NewReplicate(conf *core.Config, log *slog.Logger) *Replicate {
	return &Replicate{
		baseURL:  strings.TrimSuffix(conf.Prediction.BaseURL, "/"),
		token:    conf.ReplicateApiKey,
		interval: conf.Prediction.PollInterval,
		timeout:  conf.Prediction.Timeout,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log.With(sl.Module("replicate")),
	}
}

func (r *Replicate) Predict(ctx context.Context, req core.PredictionRequest) ([]core.Output, error) {
	var prediction Prediction
	err := doJSON(ctx, r.http, r.log, http.MethodPost, r.baseURL+"/predictions", r.token,
		&PredictionInput{Version: req.Version, Input: req.Input}, &prediction)
	if err != nil {
		return nil, err
	}
	log := r.log.With(slog.String("prediction", prediction.ID))
	log.Info("prediction created", slog.String("status", prediction.Status))

	started := time.Now()
	timer := time.NewTimer(r.interval)
	defer timer.Stop()
	for !prediction.done() {
		if time.Since(started) > r.timeout {
			log.Warn("prediction timed out", slog.Duration("elapsed", time.Since(started)))
			return nil, core.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		err = doJSON(ctx, r.http, log, http.MethodGet, r.baseURL+"/predictions/"+prediction.ID, r.token, nil, &prediction)
		if err != nil {
			return nil, err
		}
		timer.Reset(r.interval)
	}

	log.Info("prediction finished",
		slog.String("status", prediction.Status),
		slog.Duration("elapsed", time.Since(started)),
	)
	if prediction.Status != statusSucceeded {
		msg := "Prediction " + prediction.Status + "."
		if prediction.Error != nil {
			msg = fmt.Sprint(prediction.Error)
		}
		return nil, &core.BackendError{Message: msg, Err: fmt.Errorf("prediction %s %s", prediction.ID, prediction.Status)}
	}
	return decodeOutputs(req.Output, prediction.Output)
}

// decodeOutputs maps the model output to relayable outputs. Models return a
// string, a list of strings (files or text chunks) or an object; a
// transcription object yields its text.
func decodeOutputs(kind core.OutputKind, raw json.RawMessage) ([]core.Output, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if kind == "" || kind == core.OutputTranscription {
		kind = core.OutputText
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []core.Output{{Kind: kind, Value: single}}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if kind == core.OutputText {
			return []core.Output{{Kind: kind, Value: strings.Join(list, "")}}, nil
		}
		outputs := make([]core.Output, 0, len(list))
		for _, v := range list {
			outputs = append(outputs, core.Output{Kind: kind, Value: v})
		}
		return outputs, nil
	}

	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("decoding prediction output: %w", err)
	}
	if text, ok := object["transcription"].(string); ok {
		return []core.Output{{Kind: core.OutputText, Value: strings.TrimSpace(text)}}, nil
	}
	pretty, err := json.MarshalIndent(object, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding prediction output: %w", err)
	}
	return []core.Output{{Kind: core.OutputText, Value: string(pretty)}}, nil
}
