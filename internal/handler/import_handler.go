package handler

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/anillosguillen/catalog_api/internal/importer"
	"github.com/anillosguillen/catalog_api/internal/middleware"
	"github.com/anillosguillen/catalog_api/internal/service"
	"github.com/anillosguillen/catalog_api/internal/sse"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// ImportHandler triggers catalog imports and streams their progress.
type ImportHandler struct {
	importService *service.ImportService
	hub           *sse.Hub
	pingInterval  time.Duration
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService *service.ImportService, hub *sse.Hub) *ImportHandler {
	return &ImportHandler{importService: importService, hub: hub, pingInterval: 30 * time.Second}
}

// Run handles POST /v1/admin/import/wordpress. With Accept: text/event-stream
// every event is pushed as it happens; otherwise the summary and the full log
// are returned once the run ends.
func (h *ImportHandler) Run(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.stream(c)
		return
	}

	buf := &importer.BufferReporter{}
	summary, err := h.importService.Run(c.Request.Context(), buf)
	if err != nil {
		if errors.Is(err, utils.ErrImportRunning) || errors.Is(err, utils.ErrStorageUnconfigured) {
			utils.ErrorFrom(c, err)
			return
		}
		utils.Error(c, 502, "IMPORT_FAILED", err.Error())
		return
	}

	utils.Success(c, 200, "Import completed", gin.H{
		"summary": summary,
		"log":     buf.Lines(),
	})
}

func (h *ImportHandler) stream(c *gin.Context) {
	w := &streamWriter{c: c}
	summary, err := h.importService.Run(c.Request.Context(), w)
	if err != nil {
		// Refused before the first event: a plain JSON error is still possible.
		if !w.started && (errors.Is(err, utils.ErrImportRunning) || errors.Is(err, utils.ErrStorageUnconfigured)) {
			utils.ErrorFrom(c, err)
			return
		}
		log.Warn().Err(err).Msg("Streamed import ended with error")
		return
	}
	w.send(sse.CompletedMessage(summary))
}

// streamWriter writes import events straight to the response. It never
// drops: the importer waits on each write.
type streamWriter struct {
	c       *gin.Context
	mu      sync.Mutex
	started bool
}

func (w *streamWriter) Report(e importer.Event) {
	w.send(sse.LogMessage(e))
}

func (w *streamWriter) send(msg *sse.ImportMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		setSSEHeaders(w.c)
		w.c.Status(200)
		w.started = true
	}
	w.c.SSEvent("", msg)
	w.c.Writer.Flush()
}

// Events handles GET /v1/admin/import/events. Observers receive the
// progress of whichever import is running; slow observers may miss events.
func (h *ImportHandler) Events(c *gin.Context) {
	clientID := fmt.Sprintf("admin-%s-%d", c.GetString(middleware.ContextAdminEmail), time.Now().UnixNano())

	setSSEHeaders(c)

	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	// Send initial connected event
	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"running":   h.importService.Running(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Msg("Import observer stream started")

	c.Stream(func(io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("", string(data))
			return true
		case <-time.After(h.pingInterval):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
}
