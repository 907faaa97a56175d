package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/questgearhub/medialib/pkg/medialib"
)

// maxMemory is the part of a multipart upload kept in memory; the rest
// spills to temporary files.
const maxMemory = 32 << 20

// MediaHandler serves folder, image and file endpoints on top of medialib.Service
type MediaHandler struct {
	service medialib.Service
	logger  *slog.Logger
}

func NewMediaHandler(service medialib.Service, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{
		service: service,
		logger:  logger,
	}
}

// Routes returns the router for media endpoints. It is meant to be mounted
// under /api.
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/folders", h.CreateFolder)
	r.Get("/folders", h.ListFolders)
	r.Delete("/folders/{folderID}", h.DeleteFolder)
	r.Post("/images", h.UploadImage)
	r.Get("/images/{folderID}", h.ListImages)
	r.Delete("/images/{imageID}", h.DeleteImage)
	r.Get("/uploads/{filename}", h.ServeImage)
	return r
}

// CreateFolderRequest is the JSON body of POST /folders
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// SuccessResponse acknowledges a delete
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// CreateFolder creates a folder from a JSON body
func (h *MediaHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request", "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.service.CreateFolder(r.Context(), medialib.CreateFolderRequest{Name: req.Name})
	if err != nil {
		h.handleError(w, r, "Failed to create folder", err)
		return
	}

	render.JSON(w, r, folder)
}

// ListFolders returns every folder, capped at medialib.MaxListResults
func (h *MediaHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.service.ListFolders(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to list folders", err)
		return
	}

	render.JSON(w, r, folders)
}

// DeleteFolder deletes a folder with its images and their files
func (h *MediaHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")

	if err := h.service.DeleteFolder(r.Context(), folderID); err != nil {
		h.handleError(w, r, "Failed to delete folder", err)
		return
	}

	render.JSON(w, r, SuccessResponse{Success: true})
}

// UploadImage stores a multipart file under a generated name.
// Form fields: folder_id and file.
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to parse multipart form", "error", err)
		writeError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	folderID := r.FormValue("folder_id")
	if folderID == "" {
		writeError(w, r, http.StatusBadRequest, "folder_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	image, err := h.service.UploadImage(r.Context(), medialib.UploadImageRequest{
		FolderID:         folderID,
		OriginalFilename: header.Filename,
		Reader:           file,
	})
	if err != nil {
		h.handleError(w, r, "Failed to upload image", err)
		return
	}

	render.JSON(w, r, image)
}

// ListImages returns the images of one folder
func (h *MediaHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")

	images, err := h.service.ListImages(r.Context(), folderID)
	if err != nil {
		h.handleError(w, r, "Failed to list images", err)
		return
	}

	render.JSON(w, r, images)
}

// DeleteImage deletes an image record and its file
func (h *MediaHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageID")

	if err := h.service.DeleteImage(r.Context(), imageID); err != nil {
		h.handleError(w, r, "Failed to delete image", err)
		return
	}

	render.JSON(w, r, SuccessResponse{Success: true})
}

// ServeImage streams a stored file with a content type guessed from its name
func (h *MediaHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	content, err := h.service.FetchImage(r.Context(), filename)
	if err != nil {
		h.handleError(w, r, "Failed to fetch image", err)
		return
	}
	defer content.Reader.Close()

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Filename}))

	// Seekable payloads get range and conditional request support
	if rs, ok := content.Reader.(io.ReadSeeker); ok {
		http.ServeContent(w, r, content.Filename, content.ModTime, rs)
		return
	}

	w.Header().Set("Content-Length", strconv.FormatInt(content.Size, 10))
	if !content.ModTime.IsZero() {
		w.Header().Set("Last-Modified", content.ModTime.UTC().Format(http.TimeFormat))
	}
	if _, err := io.Copy(w, content.Reader); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to stream image", "filename", filename, "error", err)
	}
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleError maps service errors onto status codes. Internal failures get
// a generic message; the cause is only logged.
func (h *MediaHandler) handleError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case medialib.IsValidationError(err):
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, medialib.ErrFileNotFound):
		writeError(w, r, http.StatusNotFound, "File not found")
	default:
		h.logger.ErrorContext(r.Context(), msg, "error", err)
		writeError(w, r, http.StatusInternalServerError, msg)
	}
}

func validationMessage(err error) string {
	for _, sentinel := range []error{
		medialib.ErrPayloadRequired,
		medialib.ErrInvalidRecord,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "Invalid request"
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}
