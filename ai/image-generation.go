package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ngviethoang/ai-chatbot/core"
	"github.com/ngviethoang/ai-chatbot/lib/sl"
)

// dall-e image uploads are limited to 4MB
const maxImageBytes = 4 << 20

// DallE creates, edits and varies images. Edit and variation take the image
// the user sent, so it is downloaded and uploaded with the request.
type DallE struct {
	client openai.Client
	http   *http.Client
	model  string
	size   string
	log    *slog.Logger
}

func NewDallE(conf *core.Config, log *slog.Logger, opts ...option.RequestOption) *DallE {
	return &DallE{
		client: openai.NewClient(clientOptions(conf, opts...)...),
		http:   &http.Client{Timeout: time.Minute},
		model:  conf.ImageModel,
		size:   conf.ImageSize,
		log:    log.With(sl.Module("dall-e")),
	}
}

func (d *DallE) GenerateImages(ctx context.Context, mode core.ImageMode, fields map[string]string) ([]core.Output, error) {
	n := imageCount(fields["n"])
	prompt := fields["prompt"]

	var resp *openai.ImagesResponse
	var err error
	switch mode {
	case core.ImageEdit, core.ImageVariation:
		var image *bytes.Reader
		var name, contentType string
		image, name, contentType, err = d.image(ctx, fields["image"])
		if err != nil {
			return nil, err
		}
		file := openai.File(image, name, contentType)
		if mode == core.ImageEdit {
			resp, err = d.client.Images.Edit(ctx, openai.ImageEditParams{
				Image:          openai.ImageEditParamsImageUnion{OfFile: file},
				Prompt:         prompt,
				Model:          openai.ImageModel(d.model),
				N:              openai.Int(int64(n)),
				Size:           openai.ImageEditParamsSize(d.size),
				ResponseFormat: openai.ImageEditParamsResponseFormatURL,
			})
		} else {
			resp, err = d.client.Images.NewVariation(ctx, openai.ImageNewVariationParams{
				Image:          file,
				Model:          openai.ImageModel(d.model),
				N:              openai.Int(int64(n)),
				Size:           openai.ImageNewVariationParamsSize(d.size),
				ResponseFormat: openai.ImageNewVariationParamsResponseFormatURL,
			})
		}
	default:
		resp, err = d.client.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt:         prompt,
			Model:          openai.ImageModel(d.model),
			N:              openai.Int(int64(n)),
			Size:           openai.ImageGenerateParamsSize(d.size),
			ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
		})
	}
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			d.log.Error("image generation",
				slog.String("mode", mode.String()),
				slog.Int("status", apiErr.StatusCode),
				slog.String("code", apiErr.Code),
			)
			return nil, &core.BackendError{Message: apiErr.Message, Err: err}
		}
		return nil, fmt.Errorf("image %s: %w", mode, err)
	}

	outputs := make([]core.Output, 0, len(resp.Data))
	for _, img := range resp.Data {
		if img.URL != "" {
			outputs = append(outputs, core.Output{Kind: core.OutputImage, Value: img.URL})
		}
	}
	d.log.With(
		slog.String("mode", mode.String()),
		slog.Int("n", n),
		slog.Int("images", len(outputs)),
	).Info("image generation", sl.Text("prompt", prompt))
	return outputs, nil
}

func (d *DallE) image(ctx context.Context, imageURL string) (*bytes.Reader, string, string, error) {
	if imageURL == "" {
		return nil, "", "", &core.BackendError{Message: "Please send an image first.", Err: errors.New("no image")}
	}
	data, name, contentType, err := download(ctx, d.http, imageURL, maxImageBytes)
	if err != nil {
		return nil, "", "", err
	}
	return bytes.NewReader(data), name, contentType, nil
}

// imageCount parses the n option, falling back to one image.
func imageCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
