package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"speechproxy/internal/model"
	"speechproxy/internal/utils"
)

// allowedUploadTypes is the accepted set for /v1/transcribe uploads:
// common audio/video MIME types plus the generic binary fallback.
var allowedUploadTypes = map[string]bool{
	"audio/mpeg":               true,
	"audio/mp3":                true,
	"audio/wav":                true,
	"audio/x-wav":              true,
	"audio/wave":               true,
	"audio/mp4":                true,
	"audio/m4a":                true,
	"audio/x-m4a":              true,
	"audio/aac":                true,
	"audio/ogg":                true,
	"audio/flac":               true,
	"audio/x-flac":             true,
	"audio/webm":               true,
	"video/mp4":                true,
	"video/webm":               true,
	"video/quicktime":          true,
	"application/octet-stream": true,
}

// transcribe handles POST /v1/transcribe
func (h *Handler) transcribe(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Audio file is required")
		return
	}

	contentType := uploadContentType(file.Header.Get("Content-Type"))
	if !allowedUploadTypes[contentType] {
		utils.BadRequest(c, fmt.Sprintf("Unsupported content type: %s", contentType))
		return
	}

	if file.Size == 0 {
		utils.BadRequest(c, "Uploaded audio file is empty")
		return
	}
	if file.Size > h.cfg.MaxUploadBytes {
		utils.BadRequest(c, fmt.Sprintf("File exceeds maximum upload size of %d bytes", h.cfg.MaxUploadBytes))
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}

	opts := transcribeOptions(c)

	// Persistence is best effort: a failed write degrades to a null
	// resource URL, the transcription itself still goes through.
	filename, perr := h.store.Persist(data, file.Filename)
	if perr != nil {
		h.log.Warn("failed to persist recording", "filename", file.Filename, "error", perr)
		filename = ""
	}

	result, err := h.backend.Transcribe(c.Request.Context(), data, file.Filename, contentType, opts)
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}

	response := gin.H{}
	for k, v := range result {
		response[k] = v
	}
	if filename != "" {
		response["resource_url"] = h.store.ResolveURL(filename)
	} else {
		response["resource_url"] = nil
	}

	c.JSON(http.StatusOK, response)
}

// translate handles POST /v1/translate
func (h *Handler) translate(c *gin.Context) {
	var req model.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		utils.BadRequest(c, "Text field is required and cannot be empty")
		return
	}

	if req.TargetLanguage == "" {
		req.TargetLanguage = "en"
	}

	result, err := h.backend.Translate(c.Request.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// detectLanguage handles POST /v1/detect-language
func (h *Handler) detectLanguage(c *gin.Context) {
	var req model.DetectLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		utils.BadRequest(c, "Text field is required and cannot be empty")
		return
	}

	result, err := h.backend.DetectLanguage(c.Request.Context(), req.Text)
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// transcribeOptions reads the optional query parameters and applies their
// documented defaults: language "auto", word timestamps on unless the
// parameter is explicitly present with another value, diarization off
// unless explicitly "true".
func transcribeOptions(c *gin.Context) model.TranscribeOptions {
	wordTimestamps := true
	if v, ok := c.GetQuery("enable_word_timestamps"); ok {
		wordTimestamps = v == "true"
	}
	diarization := c.Query("enable_diarization") == "true"

	return model.TranscribeOptions{
		Language:             c.DefaultQuery("language", "auto"),
		EnableWordTimestamps: &wordTimestamps,
		EnableDiarization:    &diarization,
	}
}

// uploadContentType strips any MIME parameters and lowercases the type.
// A missing declaration falls back to the generic binary type.
func uploadContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
