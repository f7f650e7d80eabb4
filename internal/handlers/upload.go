package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"webagency/api/internal/middleware"
	"webagency/api/internal/models"
)

type uploadPayload struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}

func uploadData(upload models.Upload) uploadPayload {
	return uploadPayload{
		ID:           upload.ID,
		UserID:       upload.UserID,
		Filename:     upload.Filename,
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		SizeBytes:    upload.SizeBytes,
		CreatedAt:    upload.CreatedAt,
	}
}

func (h HandlerSet) Upload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "file field required")
		return
	}
	defer file.Close()

	upload, err := h.uploadService.Upload(c.Request.Context(), user, file, header)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondCreated(c, uploadData(upload))
}

func (h HandlerSet) ListUploads(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	uploads, err := h.uploadService.List(c.Request.Context(), user)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	items := make([]uploadPayload, 0, len(uploads))
	for _, upload := range uploads {
		items = append(items, uploadData(upload))
	}
	respondOK(c, gin.H{"uploads": items})
}

func (h HandlerSet) DeleteUpload(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "upload id required")
		return
	}

	if err := h.uploadService.Delete(c.Request.Context(), user, id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"message": "upload deleted"})
}
