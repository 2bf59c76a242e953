package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"gradergo/internal/models"
)

type BatchRunner interface {
	RunBatch(ctx context.Context, reference models.RawFile, submissions []models.RawFile) *models.BatchReport
}

// Handler wires HTTP routes to the batch grading orchestrator.
type Handler struct {
	batches      BatchRunner
	maxFileBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(runner BatchRunner, maxFileBytes int64) *Handler {
	return &Handler{batches: runner, maxFileBytes: maxFileBytes}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/healthz", h.health)
	api.POST("/grade", h.gradeBatch)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// gradeBatch accepts one "reference" file and an ordered list of
// "submissions" files and returns the batch report. Per-file size limits
// are enforced by the extraction dispatcher; the form memory cap here only
// bounds buffering.
func (h *Handler) gradeBatch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes())
	if err := c.Request.ParseMultipartForm(h.maxFileBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	form := c.Request.MultipartForm

	refHeaders := form.File["reference"]
	if len(refHeaders) == 0 || refHeaders[0].Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference file is required"})
		return
	}
	reference, err := readUpload(refHeaders[0])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read reference file failed"})
		return
	}

	var submissions []models.RawFile
	for _, fh := range form.File["submissions"] {
		if fh.Filename == "" {
			continue
		}
		sub, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read submission " + fh.Filename + " failed"})
			return
		}
		submissions = append(submissions, sub)
	}
	if len(submissions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one submission is required"})
		return
	}

	report := h.batches.RunBatch(c.Request.Context(), reference, submissions)
	c.JSON(http.StatusOK, report)
}

// maxBodyBytes caps the whole multipart request at the file size limit
// plus slack for form framing.
func (h *Handler) maxBodyBytes() int64 {
	return h.maxFileBytes + 1<<20
}

func readUpload(fh *multipart.FileHeader) (models.RawFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.RawFile{}, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return models.RawFile{}, err
	}
	return models.RawFile{Name: fh.Filename, Content: content}, nil
}
