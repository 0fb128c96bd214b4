package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cvforge/cvforge-api/internal/blob"
	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/repository"
)

// MaxResumesPerList caps the number of resumes returned by List.
const MaxResumesPerList = 1000

// ResumeStore is the resume repository used by ResumeService. Every method is
// scoped to the owning user.
type ResumeStore interface {
	Create(ctx context.Context, resume *model.Resume) error
	GetByID(ctx context.Context, userID, id string) (*model.Resume, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Resume, error)
	Update(ctx context.Context, userID, id string, patch model.ResumePatch, updatedAt time.Time) error
	SetUploadedFile(ctx context.Context, userID, id, ref string, updatedAt time.Time) error
	Delete(ctx context.Context, userID, id string) error
}

// ResumeService handles resume business logic on behalf of an authenticated
// owner.
type ResumeService struct {
	repo  ResumeStore
	blobs blob.Store
	now   func() time.Time
}

// NewResumeService creates a new ResumeService.
func NewResumeService(repo ResumeStore, blobs blob.Store) *ResumeService {
	return &ResumeService{
		repo:  repo,
		blobs: blobs,
		now:   utcNow,
	}
}

// Create stores a new resume for userID.
func (s *ResumeService) Create(ctx context.Context, userID string, req model.CreateResumeRequest) (model.Resume, error) {
	if err := validateStruct(req); err != nil {
		return model.Resume{}, err
	}

	template := req.Template
	if template == "" {
		template = model.DefaultTemplate
	}

	data := model.NewResumeDocument()
	if req.Data != nil {
		data = req.Data.Clone()
		data.Normalize()
	}

	now := s.now()
	resume := model.Resume{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     req.Title,
		Template:  template,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, &resume); err != nil {
		return model.Resume{}, err
	}

	return resume, nil
}

// List returns the resumes owned by userID, oldest first.
func (s *ResumeService) List(ctx context.Context, userID string) ([]model.Resume, error) {
	return s.repo.ListByUser(ctx, userID, MaxResumesPerList)
}

// Get returns a single resume owned by userID.
func (s *ResumeService) Get(ctx context.Context, userID, id string) (model.Resume, error) {
	resume, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return model.Resume{}, mapResumeErr(err)
	}
	return *resume, nil
}

type patchFields struct {
	Title    *string `json:"title" validate:"omitnil,notblank,max=255"`
	Template *string `json:"template" validate:"omitnil,max=64"`
}

// Update applies the fields present in patch and returns the stored result.
// Title and template follow the create rules: a blank title is rejected and an
// empty template becomes DefaultTemplate.
func (s *ResumeService) Update(ctx context.Context, userID, id string, patch model.ResumePatch) (model.Resume, error) {
	if err := validateStruct(patchFields{Title: patch.Title, Template: patch.Template}); err != nil {
		return model.Resume{}, err
	}

	if patch.Template != nil && *patch.Template == "" {
		template := model.DefaultTemplate
		patch.Template = &template
	}
	if patch.Data != nil {
		data := patch.Data.Clone()
		data.Normalize()
		patch.Data = &data
	}

	if err := s.repo.Update(ctx, userID, id, patch, s.now()); err != nil {
		return model.Resume{}, mapResumeErr(err)
	}

	return s.Get(ctx, userID, id)
}

// Delete removes a resume owned by userID.
func (s *ResumeService) Delete(ctx context.Context, userID, id string) error {
	return mapResumeErr(s.repo.Delete(ctx, userID, id))
}

// AttachFile stores the uploaded file and records its reference on the
// resume, replacing any previous one. The previous blob is not removed.
func (s *ResumeService) AttachFile(ctx context.Context, userID, id string, r io.Reader, filename string) (string, error) {
	if _, err := s.repo.GetByID(ctx, userID, id); err != nil {
		return "", mapResumeErr(err)
	}

	name := id + "_" + uuid.NewString() + blob.Extension(filename)
	ref, err := s.blobs.Store(ctx, r, name)
	if err != nil {
		return "", err
	}

	if err := s.repo.SetUploadedFile(ctx, userID, id, ref, s.now()); err != nil {
		if errors.Is(err, repository.ErrResumeNotFound) {
			slog.Warn("uploaded file orphaned, resume removed during upload", "resume_id", id, "ref", ref)
		}
		return "", mapResumeErr(err)
	}

	slog.Info("file attached to resume", "resume_id", id, "ref", ref)
	return ref, nil
}

func mapResumeErr(err error) error {
	if errors.Is(err, repository.ErrResumeNotFound) {
		return ErrResumeNotFound
	}
	return err
}
