package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sakif/linkup/internal/apperror"
	"github.com/sakif/linkup/internal/upload"
)

// uploadField is the multipart form field that carries the file.
const uploadField = "image"

// multipartSlack covers boundaries and part headers on top of the file
// itself when capping the raw request body.
const multipartSlack = 64 << 10

// UploadRecorder receives one observation per upload attempt.
type UploadRecorder interface {
	RecordUpload(backend string, size int64, err error)
}

// UploadHandler accepts an image and hands it to the configured Storage.
type UploadHandler struct {
	storage  upload.Storage
	maxBytes int64
	recorder UploadRecorder
	logger   *slog.Logger
}

// NewUploadHandler creates an UploadHandler. recorder may be nil.
func NewUploadHandler(storage upload.Storage, maxBytes int64, recorder UploadRecorder, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{storage: storage, maxBytes: maxBytes, recorder: recorder, logger: logger}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// HandleUpload stores an image.
//
// HTTP: POST /api/upload (multipart/form-data, field "image")
// Auth: Required
// RESPONSE: 201 {"url": "/uploads/<name>"}
//
// The content type is sniffed from the bytes, never taken from the client,
// and must be image/*. The client's file name only contributes its
// extension.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r, h.logger); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartSlack)
	// Parts beyond 32 KiB spill to temp files instead of memory.
	if err := r.ParseMultipartForm(32 << 10); err != nil {
		writeError(w, r, h.logger, h.formError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, h.logger, apperror.ValidationFailed(uploadField, "image file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeError(w, r, h.logger, h.tooLarge())
		return
	}

	contentType, err := sniff(file)
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("handler: reading upload: %w", err))
		return
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, r, h.logger, apperror.ValidationFailed(uploadField, "only image files are allowed"))
		return
	}

	name := upload.NewName(header.Filename, contentType)
	url, err := h.storage.Save(r.Context(), name, contentType, file)
	if h.recorder != nil {
		h.recorder.RecordUpload(h.storage.Backend(), header.Size, err)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("image uploaded",
		slog.String("name", name),
		slog.String("contentType", contentType),
		slog.Int64("size", header.Size),
		slog.String("backend", h.storage.Backend()),
	)
	writeJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

func (h *UploadHandler) formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return h.tooLarge()
	}
	return apperror.ValidationFailed(uploadField, "expected a multipart form with an image field")
}

func (h *UploadHandler) tooLarge() error {
	return apperror.ValidationFailed(uploadField,
		fmt.Sprintf("image must be at most %d bytes", h.maxBytes))
}

// sniff detects the content type from the first 512 bytes and rewinds the
// file so the whole thing is stored.
func sniff(file multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
