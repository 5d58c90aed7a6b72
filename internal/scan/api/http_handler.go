package api

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"shoppos/internal/platform/logger"
	"shoppos/internal/scan/decoder"
	"shoppos/internal/scan/session"
)

// ScanHandler is the HTTP seam between the UI host and the scan session.
// It also acts as the session listener so outcomes of fire-and-forget
// stream frames stay visible to the operator via /scan/status.
type ScanHandler struct {
	session *session.Session

	mu         sync.Mutex
	lastResult *session.Resolution
	lastError  string
	lastSeenAt time.Time
}

// NewScanHandler builds the handler without a session: the handler is
// also the session's listener, so it has to exist first. Wire the session
// in with SetSession before registering routes.
func NewScanHandler() *ScanHandler {
	return &ScanHandler{}
}

func (h *ScanHandler) SetSession(s *session.Session) {
	h.session = s
}

func (h *ScanHandler) RegisterRoutes(router *gin.RouterGroup) {
	scanRoutes := router.Group("/scan")
	{
		scanRoutes.POST("/frame", h.SubmitFrame)
		scanRoutes.POST("/barcode", h.SubmitBarcode)
		scanRoutes.GET("/status", h.Status)
	}
}

// ScanResolved implements session.Listener.
func (h *ScanHandler) ScanResolved(res session.Resolution) {
	h.mu.Lock()
	h.lastResult = &res
	h.lastError = ""
	h.lastSeenAt = time.Now()
	h.mu.Unlock()
}

// LookupFailed implements session.Listener.
func (h *ScanHandler) LookupFailed(symbol string, err error) {
	h.mu.Lock()
	h.lastError = "Lookup failed for " + symbol + ": " + err.Error()
	h.lastSeenAt = time.Now()
	h.mu.Unlock()
}

// SubmitFrame accepts a raw JPEG/PNG body. Default is a discrete still
// capture answered synchronously; ?mode=stream enqueues the frame for the
// continuous worker and returns immediately.
func (h *ScanHandler) SubmitFrame(c *gin.Context) {
	buf, err := c.GetRawData()
	if err != nil || len(buf) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty frame body, try again"})
		return
	}

	if c.Query("mode") == "stream" {
		img, derr := decodeImage(buf)
		if derr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Frame is not a valid image, try again"})
			return
		}
		if err := h.session.SubmitFrame(img); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Scan session is not running"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Frame queued"})
		return
	}

	res, err := h.session.SubmitStill(c.Request.Context(), buf)
	if err != nil {
		h.respondScanError(c, err)
		return
	}
	h.respondResolution(c, res)
}

type barcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// SubmitBarcode is the typed-in fallback when the camera cannot read a
// worn label.
func (h *ScanHandler) SubmitBarcode(c *gin.Context) {
	var req barcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Barcode is required"})
		return
	}
	res, err := h.session.SubmitManualBarcode(c.Request.Context(), req.Barcode)
	if err != nil {
		h.respondScanError(c, err)
		return
	}
	h.respondResolution(c, res)
}

func (h *ScanHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"last_result":    h.lastResult,
		"last_error":     h.lastError,
		"last_seen_at":   h.lastSeenAt,
		"dropped_frames": h.session.DroppedFrames(),
	})
}

// jpeg/png decoders are registered by the decoder package import
func decodeImage(buf []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	return img, err
}

func (h *ScanHandler) respondResolution(c *gin.Context, res session.Resolution) {
	switch res.Status {
	case session.StatusAdded:
		c.JSON(http.StatusOK, res)
	case session.StatusUnknown:
		// actionable prompt, not a failure: the symbol seeds the
		// add-product form
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "No product matches barcode " + res.Symbol + ", create it first",
			"barcode": res.Symbol,
			"action":  "create_product",
		})
	case session.StatusSuppressed:
		c.JSON(http.StatusOK, res)
	default:
		c.JSON(http.StatusOK, res)
	}
}

func (h *ScanHandler) respondScanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, decoder.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Frame is not a valid image, try again"})
	case errors.Is(err, session.ErrNoBarcodeFound):
		// normal negative outcome, keep scanning
		c.JSON(http.StatusOK, gin.H{"found": false, "message": "No barcode found, keep scanning"})
	default:
		logger.Error("scan: lookup failed", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Product store is unavailable, please retry"})
	}
}
