package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cvforge/cvforge-api/internal/middleware"
	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/service"
)

const (
	maxUploadSize      = 10 << 20 // 10MB
	uploadMemoryBuffer = 1 << 20
	uploadField        = "file"
)

// UploadRecorder counts accepted uploads.
type UploadRecorder interface {
	RecordUpload(size int64)
}

// ResumeHandler handles HTTP requests for resume operations.
type ResumeHandler struct {
	service *service.ResumeService
	uploads UploadRecorder
}

// NewResumeHandler creates a new ResumeHandler. uploads may be nil.
func NewResumeHandler(svc *service.ResumeService, uploads UploadRecorder) *ResumeHandler {
	return &ResumeHandler{service: svc, uploads: uploads}
}

// HandleCreate handles POST /api/resumes requests.
func (h *ResumeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	var req model.CreateResumeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resume, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

// HandleList handles GET /api/resumes requests.
func (h *ResumeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	resumes, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resumes)
}

// HandleGet handles GET /api/resumes/{resume_id} requests.
func (h *ResumeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	resume, err := h.service.Get(r.Context(), user.ID, chi.URLParam(r, "resume_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

// HandleUpdate handles PUT /api/resumes/{resume_id} requests.
func (h *ResumeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	var patch model.ResumePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	resume, err := h.service.Update(r.Context(), user.ID, chi.URLParam(r, "resume_id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resume)
}

// HandleDelete handles DELETE /api/resumes/{resume_id} requests.
func (h *ResumeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, chi.URLParam(r, "resume_id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Resume deleted successfully"})
}

// HandleUpload handles POST /api/resumes/{resume_id}/upload requests.
func (h *ResumeHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(uploadMemoryBuffer); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, errBodyTooLarge)
			return
		}
		writeError(w, r, service.NewValidationError(uploadField, "must be sent as multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, service.NewValidationError(uploadField, "is required"))
		return
	}
	defer file.Close()

	ref, err := h.service.AttachFile(r.Context(), user.ID, chi.URLParam(r, "resume_id"), file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.uploads != nil {
		h.uploads.RecordUpload(header.Size)
	}
	writeJSON(w, http.StatusOK, model.UploadResponse{Message: "File uploaded successfully", Filename: ref})
}
