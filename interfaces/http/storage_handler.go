package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"syncsns/domain/dto"
	"syncsns/infrastructure/logger"
	"syncsns/infrastructure/storage"
)

const (
	maxUploadFiles    = 5
	maxUploadFileSize = 10 << 20 // 10 MB per file
)

type IStorageHandler interface {
	Upload(c *gin.Context)
}

type StorageHandler struct {
	store storage.IObjectStore
}

func NewStorageHandler(store storage.IObjectStore) IStorageHandler {
	return &StorageHandler{store: store}
}

// Upload accepts multipart image files and stores each in the object
// store. Per-file failures are reported alongside the successes so a
// partially bad batch still uploads what it can.
func (h *StorageHandler) Upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "object storage not configured"})
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}
	if len(files) > maxUploadFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many files"})
		return
	}

	var uploaded []dto.UploadedFile
	var failed []dto.UploadError
	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			failed = append(failed, dto.UploadError{FileName: fh.Filename, Error: "only image files are allowed"})
			continue
		}
		if fh.Size > maxUploadFileSize {
			failed = append(failed, dto.UploadError{FileName: fh.Filename, Error: "file exceeds 10MB limit"})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			failed = append(failed, dto.UploadError{FileName: fh.Filename, Error: "unreadable file"})
			continue
		}
		url, err := h.store.Upload(c.Request.Context(), fh.Filename, contentType, f)
		f.Close()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("upload failed")
			failed = append(failed, dto.UploadError{FileName: fh.Filename, Error: "upload failed"})
			continue
		}
		uploaded = append(uploaded, dto.UploadedFile{
			FileName:  fh.Filename,
			PublicURL: url,
			Size:      fh.Size,
			Type:      contentType,
		})
	}

	status := http.StatusOK
	if len(uploaded) == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"uploaded": uploaded, "errors": failed})
}
