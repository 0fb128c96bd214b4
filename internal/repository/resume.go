package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cvforge/cvforge-api/internal/model"
)

var ErrResumeNotFound = errors.New("resume not found")

// ResumeRepository handles resume persistence. Every statement is filtered by
// the owning user id.
type ResumeRepository struct {
	db *sql.DB
}

// NewResumeRepository creates a new ResumeRepository.
func NewResumeRepository(db *sql.DB) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, user_id, title, template, data, uploaded_file, created_at, updated_at`

// Create inserts a new resume.
func (r *ResumeRepository) Create(ctx context.Context, resume *model.Resume) error {
	data, err := json.Marshal(resume.Data)
	if err != nil {
		return fmt.Errorf("encode resume data: %w", err)
	}

	query := `INSERT INTO resumes (` + resumeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		resume.ID,
		resume.UserID,
		resume.Title,
		resume.Template,
		data,
		nullableString(resume.UploadedFile),
		resume.CreatedAt,
		resume.UpdatedAt,
	)
	return err
}

// GetByID retrieves a resume by id for its owner.
func (r *ResumeRepository) GetByID(ctx context.Context, userID, id string) (*model.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = ? AND user_id = ?`

	resume, err := scanResume(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	return resume, nil
}

// ListByUser retrieves up to limit resumes of a user, oldest first.
func (r *ResumeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = ? ORDER BY created_at ASC, id ASC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := []model.Resume{}
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, *resume)
	}

	return resumes, rows.Err()
}

// Update writes the fields present in the patch and refreshes updated_at.
func (r *ResumeRepository) Update(ctx context.Context, userID, id string, patch model.ResumePatch, updatedAt time.Time) error {
	var (
		sets []string
		args []any
	)

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Template != nil {
		sets = append(sets, "template = ?")
		args = append(args, *patch.Template)
	}
	if patch.Data != nil {
		data, err := json.Marshal(patch.Data)
		if err != nil {
			return fmt.Errorf("encode resume data: %w", err)
		}
		sets = append(sets, "data = ?")
		args = append(args, data)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt, id, userID)

	query := `UPDATE resumes SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// SetUploadedFile replaces the uploaded file reference of a resume.
func (r *ResumeRepository) SetUploadedFile(ctx context.Context, userID, id, ref string, updatedAt time.Time) error {
	query := `UPDATE resumes SET uploaded_file = ?, updated_at = ? WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, ref, updatedAt, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes a resume owned by the user.
func (r *ResumeRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM resumes WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (*model.Resume, error) {
	var (
		resume   model.Resume
		data     []byte
		uploaded sql.NullString
	)

	err := row.Scan(
		&resume.ID, &resume.UserID, &resume.Title, &resume.Template,
		&data, &uploaded, &resume.CreatedAt, &resume.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &resume.Data); err != nil {
		return nil, fmt.Errorf("decode resume %s data: %w", resume.ID, err)
	}
	resume.Data.Normalize()

	if uploaded.Valid {
		ref := uploaded.String
		resume.UploadedFile = &ref
	}
	resume.CreatedAt = resume.CreatedAt.UTC()
	resume.UpdatedAt = resume.UpdatedAt.UTC()

	return &resume, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrResumeNotFound
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
