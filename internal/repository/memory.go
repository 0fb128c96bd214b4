package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cvforge/cvforge-api/internal/model"
)

// MemoryUserRepository is an in-process user store used when no database is
// configured and in tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

// NewMemoryUserRepository creates a new MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]model.User),
		byEmail: make(map[string]string),
	}
}

// Create inserts a new user, rejecting an email that is already taken.
func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return ErrDuplicateEmail
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	user := r.byID[id]
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// MemoryResumeRepository is an in-process resume store. Values are deep
// copied on the way in and out so callers never share state with the store.
type MemoryResumeRepository struct {
	mu      sync.RWMutex
	resumes map[string]model.Resume
}

// NewMemoryResumeRepository creates a new MemoryResumeRepository.
func NewMemoryResumeRepository() *MemoryResumeRepository {
	return &MemoryResumeRepository{resumes: make(map[string]model.Resume)}
}

// Create inserts a new resume.
func (r *MemoryResumeRepository) Create(_ context.Context, resume *model.Resume) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resumes[resume.ID] = resume.Clone()
	return nil
}

// GetByID retrieves a resume by id for its owner.
func (r *MemoryResumeRepository) GetByID(_ context.Context, userID, id string) (*model.Resume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resume, ok := r.owned(userID, id)
	if !ok {
		return nil, ErrResumeNotFound
	}
	out := resume.Clone()
	return &out, nil
}

// ListByUser retrieves up to limit resumes of a user, oldest first.
func (r *MemoryResumeRepository) ListByUser(_ context.Context, userID string, limit int) ([]model.Resume, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resumes := []model.Resume{}
	for _, resume := range r.resumes {
		if resume.UserID == userID {
			resumes = append(resumes, resume.Clone())
		}
	}

	sort.Slice(resumes, func(i, j int) bool {
		if resumes[i].CreatedAt.Equal(resumes[j].CreatedAt) {
			return resumes[i].ID < resumes[j].ID
		}
		return resumes[i].CreatedAt.Before(resumes[j].CreatedAt)
	})

	if limit > 0 && len(resumes) > limit {
		resumes = resumes[:limit]
	}
	return resumes, nil
}

// Update writes the fields present in the patch and refreshes updated_at.
func (r *MemoryResumeRepository) Update(_ context.Context, userID, id string, patch model.ResumePatch, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	resume, ok := r.owned(userID, id)
	if !ok {
		return ErrResumeNotFound
	}
	patch.Apply(&resume)
	resume.UpdatedAt = updatedAt
	r.resumes[id] = resume
	return nil
}

// SetUploadedFile replaces the uploaded file reference of a resume.
func (r *MemoryResumeRepository) SetUploadedFile(_ context.Context, userID, id, ref string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	resume, ok := r.owned(userID, id)
	if !ok {
		return ErrResumeNotFound
	}
	resume.UploadedFile = &ref
	resume.UpdatedAt = updatedAt
	r.resumes[id] = resume
	return nil
}

// Delete removes a resume owned by the user.
func (r *MemoryResumeRepository) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owned(userID, id); !ok {
		return ErrResumeNotFound
	}
	delete(r.resumes, id)
	return nil
}

// owned must be called with the lock held.
func (r *MemoryResumeRepository) owned(userID, id string) (model.Resume, bool) {
	resume, ok := r.resumes[id]
	if !ok || resume.UserID != userID {
		return model.Resume{}, false
	}
	return resume, true
}
