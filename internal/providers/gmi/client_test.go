package gmi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"genstudio/internal/domain"
	"genstudio/internal/providers/image"
	"genstudio/internal/providers/video"
)

func newTestClient(transport *captureTransport) *Client {
	return NewClient(Options{
		BaseURL:    "https://gmi.test/requests",
		HTTPClient: &http.Client{Transport: transport},
	})
}

func TestGenerateSeedreamPayload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/requests", map[string]any{"id": "gmi-1"})
	transport.setJSONResponse("https://gmi.test/requests/gmi-1", map[string]any{
		"status": "completed",
		"result": map[string]any{
			"images": []any{map[string]any{"url": "https://cdn.test/seedream.png"}},
		},
	})

	gen := NewImageGenerator(newTestClient(transport))
	result, err := gen.Generate(context.Background(), image.GenerateRequest{
		Prompt:      "a red bicycle",
		AspectRatio: "1:1",
		Resolution:  "2K",
		Model:       "seedream-4-0-250828",
		APIKey:      "gmi-secret",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.URL != "https://cdn.test/seedream.png" {
		t.Fatalf("url = %q", result.URL)
	}
	if auth := transport.lastAuth; auth != "Bearer gmi-secret" {
		t.Fatalf("authorization = %q, want Bearer prefix", auth)
	}

	var envelope struct {
		Model   string         `json:"model"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(transport.lastBody, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Model != "seedream-4-0-250828" {
		t.Fatalf("model = %q", envelope.Model)
	}
	if size := envelope.Payload["size"]; size != "1:1" {
		t.Fatalf("size = %v, want the aspect token", size)
	}
	if wm := envelope.Payload["watermark"]; wm != false {
		t.Fatalf("watermark = %v, want false", wm)
	}
	if rf := envelope.Payload["response_format"]; rf != "url" {
		t.Fatalf("response_format = %v, want url", rf)
	}
	if _, ok := envelope.Payload["image_size"]; ok {
		t.Fatalf("image_size should be omitted for seedream")
	}
}

func TestShapeGeminiPayload(t *testing.T) {
	payload := shapeImagePayload(image.GenerateRequest{
		Prompt:      "misty forest",
		AspectRatio: "auto",
		Resolution:  "4K",
		Model:       "gemini-3-pro-image-preview",
		Images:      []string{"https://cdn.test/ref.png"},
	})
	if _, ok := payload["aspect_ratio"]; ok {
		t.Fatalf("aspect_ratio should be omitted when auto")
	}
	if size := payload["image_size"]; size != "4K" {
		t.Fatalf("image_size = %v, want the raw tier token", size)
	}
	refs, ok := payload["image"].([]string)
	if !ok || len(refs) != 1 {
		t.Fatalf("image = %v, want one reference", payload["image"])
	}
}

func TestGenerateFailureCarriesProviderMessage(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.setJSONResponse("/requests", map[string]any{"request_id": "gmi-2"})
	transport.setJSONResponse("https://gmi.test/requests/gmi-2", map[string]any{
		"status":  "failed",
		"message": "content policy violation",
	})

	gen := NewImageGenerator(newTestClient(transport))
	_, err := gen.Generate(context.Background(), image.GenerateRequest{
		Prompt: "something",
		Model:  "gemini-3-pro-image-preview",
		APIKey: "gmi-secret",
	})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want provider failure", err)
	}
	if !strings.Contains(err.Error(), "content policy violation") {
		t.Fatalf("err = %v, want the provider message", err)
	}
}

func TestExtractImageURLOrder(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"nested output url", `{"output":{"url":"https://x"}}`, "https://x"},
		{"result images", `{"result":{"images":[{"url":"https://a"}]},"url":"https://z"}`, "https://a"},
		{"top level url", `{"url":"https://top"}`, "https://top"},
		{"top level images", `{"images":[{"url":"https://arr"}]}`, "https://arr"},
		{"nothing", `{"status":"completed"}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractImageURL(json.RawMessage(tc.raw), "png"); got != tc.want {
				t.Fatalf("extractImageURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractImageURLBase64Fallback(t *testing.T) {
	raw := json.RawMessage(`{"result":{"images":[{"b64_json":"aGVsbG8="}]}}`)
	got := extractImageURL(raw, "webp")
	if got != "data:image/webp;base64,aGVsbG8=" {
		t.Fatalf("data url = %q", got)
	}
	raw = json.RawMessage(`{"output":{"images":[{"b64_json":"aGVsbG8="}]}}`)
	if got := extractImageURL(raw, ""); got != "data:image/png;base64,aGVsbG8=" {
		t.Fatalf("default format data url = %q", got)
	}
}

func TestVideoProviderNotImplemented(t *testing.T) {
	provider := NewVideoProvider()
	if _, err := provider.Submit(context.Background(), video.GenerateRequest{}); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("submit err = %v, want not implemented", err)
	}
	if _, err := provider.Await(context.Background(), "k", video.Resume{}); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("await err = %v, want not implemented", err)
	}
}

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
	lastAuth  string
}

type responseStub struct {
	status int
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastAuth = req.Header.Get("Authorization")
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(key string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[key] = responseStub{status: http.StatusOK, body: body}
}

func (s responseStub) toResponse() *http.Response {
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
