package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/repository"
)

type memoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string]string
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: make(map[string]string)}
}

func (m *memoryBlobStore) Store(_ context.Context, r io.Reader, name string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = string(b)
	return name, nil
}

func (m *memoryBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// tickingClock returns strictly increasing instants.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestResumeService() (*ResumeService, *memoryBlobStore) {
	blobs := newMemoryBlobStore()
	svc := NewResumeService(repository.NewMemoryResumeRepository(), blobs)
	svc.now = tickingClock()
	return svc, blobs
}

func createResume(t *testing.T, svc *ResumeService, owner, title string) model.Resume {
	t.Helper()
	r, err := svc.Create(context.Background(), owner, model.CreateResumeRequest{Title: title})
	require.NoError(t, err)
	return r
}

func TestResumeCreateDefaults(t *testing.T) {
	svc, _ := newTestResumeService()

	r := createResume(t, svc, "alice", "Resume1")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "alice", r.UserID)
	assert.Equal(t, "Resume1", r.Title)
	assert.Equal(t, model.DefaultTemplate, r.Template)
	assert.Equal(t, model.NewResumeDocument(), r.Data)
	assert.Nil(t, r.UploadedFile)
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)
}

func TestResumeCreateNormalizesData(t *testing.T) {
	svc, _ := newTestResumeService()

	r, err := svc.Create(context.Background(), "alice", model.CreateResumeRequest{
		Title:    "CV",
		Template: "classic",
		Data: &model.ResumeDocument{
			PersonalInfo:   model.PersonalInfo{FullName: "Alice"},
			WorkExperience: []model.WorkExperience{{Company: "Acme"}},
			Skills:         []string{"go", "go"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "classic", r.Template)
	assert.NotEmpty(t, r.Data.WorkExperience[0].ID)
	assert.Equal(t, []string{"go", "go"}, r.Data.Skills)
	assert.NotNil(t, r.Data.Education)

	got, err := svc.Get(context.Background(), "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestResumeCreateValidation(t *testing.T) {
	svc, _ := newTestResumeService()

	for name, req := range map[string]model.CreateResumeRequest{
		"missing title": {},
		"blank title":   {Title: "  "},
		"long template": {Title: "CV", Template: strings.Repeat("t", 65)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestResumeListIsolatedAndOrdered(t *testing.T) {
	svc, _ := newTestResumeService()
	ctx := context.Background()

	first := createResume(t, svc, "alice", "First")
	createResume(t, svc, "bob", "Bob's")
	second := createResume(t, svc, "alice", "Second")

	list, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	empty, err := svc.List(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestResumeForeignAccessLooksMissing(t *testing.T) {
	svc, blobs := newTestResumeService()
	ctx := context.Background()

	r := createResume(t, svc, "alice", "Private")
	title := "stolen"

	_, getErr := svc.Get(ctx, "bob", r.ID)
	_, missingErr := svc.Get(ctx, "bob", "does-not-exist")
	_, updateErr := svc.Update(ctx, "bob", r.ID, model.ResumePatch{Title: &title})
	deleteErr := svc.Delete(ctx, "bob", r.ID)
	_, attachErr := svc.AttachFile(ctx, "bob", r.ID, strings.NewReader("x"), "cv.pdf")

	for _, err := range []error{getErr, missingErr, updateErr, deleteErr, attachErr} {
		assert.ErrorIs(t, err, ErrResumeNotFound)
	}
	assert.Equal(t, 0, blobs.count())

	got, err := svc.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestResumeUpdatePartial(t *testing.T) {
	svc, _ := newTestResumeService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "alice", model.CreateResumeRequest{
		Title: "Resume1",
		Data:  &model.ResumeDocument{PersonalInfo: model.PersonalInfo{FullName: "Alice", Summary: "Engineer"}},
	})
	require.NoError(t, err)

	classic := "classic"
	updated, err := svc.Update(ctx, "alice", r.ID, model.ResumePatch{Template: &classic})
	require.NoError(t, err)

	assert.Equal(t, "classic", updated.Template)
	assert.Equal(t, "Resume1", updated.Title)
	assert.Equal(t, r.Data, updated.Data)
	assert.Equal(t, r.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(r.UpdatedAt))
	assert.Equal(t, r.ID, updated.ID)
	assert.Equal(t, r.UserID, updated.UserID)
}

func TestResumeUpdateDataReplacesWholesale(t *testing.T) {
	svc, _ := newTestResumeService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "alice", model.CreateResumeRequest{
		Title: "CV",
		Data: &model.ResumeDocument{
			PersonalInfo: model.PersonalInfo{FullName: "Alice", Summary: "Engineer"},
			Skills:       []string{"go"},
		},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "alice", r.ID, model.ResumePatch{
		Data: &model.ResumeDocument{PersonalInfo: model.PersonalInfo{FullName: "Alice B"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice B", updated.Data.PersonalInfo.FullName)
	assert.Empty(t, updated.Data.PersonalInfo.Summary)
	assert.Equal(t, []string{}, updated.Data.Skills)
}

func TestResumeUpdateEmptyPatchRefreshesTimestamp(t *testing.T) {
	svc, _ := newTestResumeService()

	r := createResume(t, svc, "alice", "CV")
	updated, err := svc.Update(context.Background(), "alice", r.ID, model.ResumePatch{})
	require.NoError(t, err)

	assert.Equal(t, r.Title, updated.Title)
	assert.True(t, updated.UpdatedAt.After(r.UpdatedAt))
}

func TestResumeUpdateValidation(t *testing.T) {
	svc, _ := newTestResumeService()
	r := createResume(t, svc, "alice", "CV")

	for _, title := range []string{"", "   "} {
		_, err := svc.Update(context.Background(), "alice", r.ID, model.ResumePatch{Title: &title})
		require.ErrorIs(t, err, ErrValidation)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "title")
	}

	got, err := svc.Get(context.Background(), "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, "CV", got.Title)
}

func TestResumeUpdateEmptyTemplateDefaults(t *testing.T) {
	svc, _ := newTestResumeService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "alice", model.CreateResumeRequest{Title: "CV", Template: "classic"})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(ctx, "alice", r.ID, model.ResumePatch{Template: &empty})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTemplate, updated.Template)

	created, err := svc.Create(ctx, "alice", model.CreateResumeRequest{Title: "CV2", Template: ""})
	require.NoError(t, err)
	assert.Equal(t, created.Template, updated.Template)
}

func TestResumeDelete(t *testing.T) {
	svc, _ := newTestResumeService()
	ctx := context.Background()

	r := createResume(t, svc, "alice", "CV")

	require.NoError(t, svc.Delete(ctx, "alice", r.ID))
	_, err := svc.Get(ctx, "alice", r.ID)
	assert.ErrorIs(t, err, ErrResumeNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "alice", r.ID), ErrResumeNotFound)
}

func TestResumeAttachFile(t *testing.T) {
	svc, blobs := newTestResumeService()
	ctx := context.Background()

	r := createResume(t, svc, "alice", "CV")

	ref, err := svc.AttachFile(ctx, "alice", r.ID, strings.NewReader("%PDF-1.4"), "My CV.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, r.ID+"_"))
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	got, err := svc.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UploadedFile)
	assert.Equal(t, ref, *got.UploadedFile)
	assert.True(t, got.UpdatedAt.After(r.UpdatedAt))

	second, err := svc.AttachFile(ctx, "alice", r.ID, strings.NewReader("again"), "cv.docx")
	require.NoError(t, err)
	assert.NotEqual(t, ref, second)

	got, err = svc.Get(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, second, *got.UploadedFile)
	assert.Equal(t, 2, blobs.count())
}

type vanishingResumeStore struct {
	*repository.MemoryResumeRepository
}

func (vanishingResumeStore) SetUploadedFile(context.Context, string, string, string, time.Time) error {
	return repository.ErrResumeNotFound
}

func TestResumeAttachFileOrphanedBlob(t *testing.T) {
	blobs := newMemoryBlobStore()
	svc := NewResumeService(vanishingResumeStore{repository.NewMemoryResumeRepository()}, blobs)

	r := createResume(t, svc, "alice", "CV")

	_, err := svc.AttachFile(context.Background(), "alice", r.ID, strings.NewReader("x"), "cv.pdf")
	assert.ErrorIs(t, err, ErrResumeNotFound)
	assert.Equal(t, 1, blobs.count())
}

type failingBlobStore struct{}

func (failingBlobStore) Store(context.Context, io.Reader, string) (string, error) {
	return "", errors.New("disk full")
}

func TestResumeAttachFileBlobFailure(t *testing.T) {
	svc := NewResumeService(repository.NewMemoryResumeRepository(), failingBlobStore{})
	r := createResume(t, svc, "alice", "CV")

	_, err := svc.AttachFile(context.Background(), "alice", r.ID, strings.NewReader("x"), "cv.pdf")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResumeNotFound)

	got, err := svc.Get(context.Background(), "alice", r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UploadedFile)
}
