package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"speechproxy/internal/model"
)

const unreachableMessage = "Speech backend is not reachable"

// Client forwards requests to the remote speech backend. Responses are
// passed through as opaque JSON; this layer never interprets their fields.
// One outbound call per operation, no retries.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a backend client. The timeout covers the whole call and
// should be generous enough for large audio uploads.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Health forwards the backend's health check.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	return c.do(ctx, http.MethodGet, "/health", "", nil)
}

// Transcribe sends the audio buffer as a multipart upload. Only options
// that are actually set become form fields.
func (c *Client) Transcribe(ctx context.Context, data []byte, filename, contentType string, opts model.TranscribeOptions) (map[string]any, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := newAudioPart(w, filename, contentType)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}

	if opts.Language != "" {
		if err := w.WriteField("language", opts.Language); err != nil {
			return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
		}
	}
	if opts.EnableWordTimestamps != nil {
		if err := w.WriteField("enable_word_timestamps", strconv.FormatBool(*opts.EnableWordTimestamps)); err != nil {
			return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
		}
	}
	if opts.EnableDiarization != nil {
		if err := w.WriteField("enable_diarization", strconv.FormatBool(*opts.EnableDiarization)); err != nil {
			return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}

	c.log.Info("forwarding transcription", "filename", filename, "size_bytes", len(data))
	return c.do(ctx, http.MethodPost, "/v1/transcribe", w.FormDataContentType(), body)
}

// Translate forwards a translation request. sourceLanguage is omitted when
// empty; targetLanguage is carried for backward compatibility only.
func (c *Client) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (map[string]any, error) {
	payload := map[string]any{
		"text":            text,
		"target_language": targetLanguage,
	}
	if sourceLanguage != "" {
		payload["source_language"] = sourceLanguage
	}
	return c.doJSON(ctx, "/v1/translate", payload)
}

// DetectLanguage forwards a language-detection request.
func (c *Client) DetectLanguage(ctx context.Context, text string) (map[string]any, error) {
	return c.doJSON(ctx, "/v1/detect-language", map[string]any{"text": text})
}

func (c *Client) doJSON(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("backend unreachable", "path", path, "error", err)
		return nil, &Error{Status: http.StatusServiceUnavailable, Message: unreachableMessage}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("failed to read backend response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFrom(path, resp.StatusCode, raw)
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Error("invalid JSON from backend", "path", path, "status", resp.StatusCode, "error", err)
		return nil, &Error{Status: http.StatusInternalServerError, Message: "invalid response from speech backend"}
	}

	return result, nil
}

// errorFrom maps a backend rejection to an Error, lifting the detail/error
// field as the message and keeping the full structured body as payload.
func (c *Client) errorFrom(path string, status int, raw []byte) *Error {
	message := fmt.Sprintf("speech backend returned status %d", status)

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Warn("backend error", "path", path, "status", status, "body", string(raw))
		return &Error{Status: status, Message: message}
	}

	if detail, ok := payload["detail"].(string); ok && detail != "" {
		message = detail
	} else if msg, ok := payload["error"].(string); ok && msg != "" {
		message = msg
	}

	c.log.Warn("backend error", "path", path, "status", status, "detail", message)
	return &Error{Status: status, Message: message, Payload: payload}
}

func newAudioPart(w *multipart.Writer, filename, contentType string) (io.Writer, error) {
	if contentType == "" {
		return w.CreateFormFile("file", filename)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
