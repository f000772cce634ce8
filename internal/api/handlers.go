package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"speechproxy/internal/backend"
	"speechproxy/internal/config"
	"speechproxy/internal/storage"
	"speechproxy/internal/utils"
)

const (
	serviceName    = "speech-proxy"
	serviceVersion = "1.0.0"
)

// Handler holds the injected dependencies shared by all routes.
type Handler struct {
	store   *storage.Store
	backend *backend.Client
	cfg     *config.Config
	log     *slog.Logger
}

// NewHandler creates the route handler set.
func NewHandler(store *storage.Store, client *backend.Client, cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		backend: client,
		cfg:     cfg,
		log:     log,
	}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/", h.describe)
	r.GET("/health", h.health)
	r.GET("/audio/:filename", h.serveRecording)

	v1 := r.Group("/v1")
	{
		v1.POST("/transcribe", h.transcribe)
		v1.POST("/translate", h.translate)
		v1.POST("/detect-language", h.detectLanguage)
		v1.GET("/recordings", h.listRecordings)
		v1.GET("/recordings/:filename", h.getRecording)
		v1.DELETE("/recordings/:filename", h.deleteRecording)
	}
}

// describe returns the service descriptor.
func (h *Handler) describe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    serviceName,
		"version": serviceVersion,
		"status":  "ok",
		"endpoints": gin.H{
			"health":          "GET /health",
			"transcribe":      "POST /v1/transcribe",
			"translate":       "POST /v1/translate",
			"detect_language": "POST /v1/detect-language",
			"recordings":      "GET /v1/recordings",
			"audio":           "GET /audio/:filename",
		},
	})
}

// health passes the backend's health JSON through unmodified.
func (h *Handler) health(c *gin.Context) {
	result, err := h.backend.Health(c.Request.Context())
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// listRecordings handles GET /v1/recordings
func (h *Handler) listRecordings(c *gin.Context) {
	infos, err := h.store.List()
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recordings": infos,
		"count":      len(infos),
	})
}

// getRecording handles GET /v1/recordings/:filename
func (h *Handler) getRecording(c *gin.Context) {
	info, err := h.store.Stat(c.Param("filename"))
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}
	if info == nil {
		utils.NotFound(c, "Recording not found")
		return
	}
	c.JSON(http.StatusOK, info)
}

// deleteRecording handles DELETE /v1/recordings/:filename. Deletion is best
// effort: the response is 200 whether or not the file was actually removed.
func (h *Handler) deleteRecording(c *gin.Context) {
	filename := c.Param("filename")
	h.store.Delete(filename)
	c.JSON(http.StatusOK, gin.H{
		"filename": filename,
		"status":   "deleted",
	})
}

// serveRecording handles GET /audio/:filename
func (h *Handler) serveRecording(c *gin.Context) {
	filename := c.Param("filename")

	info, err := h.store.Stat(filename)
	if err != nil {
		utils.WriteError(c, h.log, err)
		return
	}
	if info == nil {
		utils.NotFound(c, "Recording not found")
		return
	}

	path, err := h.store.Path(filename)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	c.File(path)
}
