package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/optira-energie/comparateur-api/internal/entity"
	"github.com/optira-energie/comparateur-api/internal/infra/http/middleware"
	"github.com/optira-energie/comparateur-api/internal/usecase"
)

type UploadHandler struct {
	Upload *usecase.UploadFileUseCase
}

func NewUploadHandler(upload *usecase.UploadFileUseCase) *UploadHandler {
	return &UploadHandler{Upload: upload}
}

// HandleUpload (POST /api/prospects/{id}/documents, multipart). Fields:
// file, category, documentCategory (optional tag for the other-documents
// list). Size and type are rejected before the blob store is touched.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	prospectID := chi.URLParam(r, "id")

	// One slot of slack over the file cap for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(usecase.MaxUploadBytes); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "FILE_TOO_LARGE", "Le fichier est trop volumineux (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	category := entity.DocumentCategory(r.FormValue("category"))

	fd, err := h.Upload.Execute(r.Context(), usecase.UploadFileInput{
		ProspectID:       prospectID,
		FileName:         header.Filename,
		MimeType:         mimeType,
		Content:          content,
		Category:         category,
		DocumentCategory: r.FormValue("documentCategory"),
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	// Metric label must stay on the bounded category list; documentCategory
	// is client-chosen free text.
	middleware.RecordFileUploaded(string(category))
	writeJSON(w, http.StatusCreated, fd)
}

// HandleDelete (DELETE /api/prospects/{id}/documents/{category}/{fileId}).
// The blob goes first; the descriptor is only removed once the bytes are
// gone.
func (h *UploadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	prospectID := chi.URLParam(r, "id")
	category := entity.DocumentCategory(chi.URLParam(r, "category"))
	fileID := chi.URLParam(r, "fileId")

	if !category.Valid() {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_CATEGORY", "unknown document category")
		return
	}

	if err := h.Upload.Delete(r.Context(), prospectID, category, fileID); err != nil {
		writeUseCaseError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
