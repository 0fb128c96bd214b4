package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTemplate is used when a resume is created without a template.
const DefaultTemplate = "modern"

// Resume is a structured resume document owned by exactly one user.
type Resume struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Title        string         `json:"title"`
	Template     string         `json:"template"`
	Data         ResumeDocument `json:"data"`
	UploadedFile *string        `json:"uploaded_file"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ResumeDocument is the editable body of a resume. Fields missing from input
// decode to their zero value and unknown fields are dropped.
type ResumeDocument struct {
	PersonalInfo   PersonalInfo     `json:"personal_info"`
	WorkExperience []WorkExperience `json:"work_experience"`
	Education      []Education      `json:"education"`
	Skills         []string         `json:"skills"`
	Certifications []string         `json:"certifications"`
}

type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

type WorkExperience struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GPA         string `json:"gpa"`
}

// NewResumeDocument returns an empty document with non-nil lists.
func NewResumeDocument() ResumeDocument {
	return ResumeDocument{
		WorkExperience: []WorkExperience{},
		Education:      []Education{},
		Skills:         []string{},
		Certifications: []string{},
	}
}

// Normalize replaces nil lists with empty ones and assigns ids to entries
// that arrived without one.
func (d *ResumeDocument) Normalize() {
	if d.WorkExperience == nil {
		d.WorkExperience = []WorkExperience{}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Certifications == nil {
		d.Certifications = []string{}
	}
	for i := range d.WorkExperience {
		if d.WorkExperience[i].ID == "" {
			d.WorkExperience[i].ID = uuid.NewString()
		}
	}
	for i := range d.Education {
		if d.Education[i].ID == "" {
			d.Education[i].ID = uuid.NewString()
		}
	}
}

// Clone returns a deep copy of the document.
func (d ResumeDocument) Clone() ResumeDocument {
	out := d
	if d.WorkExperience != nil {
		out.WorkExperience = append([]WorkExperience{}, d.WorkExperience...)
	}
	if d.Education != nil {
		out.Education = append([]Education{}, d.Education...)
	}
	if d.Skills != nil {
		out.Skills = append([]string{}, d.Skills...)
	}
	if d.Certifications != nil {
		out.Certifications = append([]string{}, d.Certifications...)
	}
	return out
}

// Clone returns a deep copy of the resume.
func (r Resume) Clone() Resume {
	out := r
	out.Data = r.Data.Clone()
	if r.UploadedFile != nil {
		ref := *r.UploadedFile
		out.UploadedFile = &ref
	}
	return out
}

// CreateResumeRequest represents a resume creation request. Server-assigned
// fields are not part of it and are ignored if sent.
type CreateResumeRequest struct {
	Title    string          `json:"title" validate:"required,notblank,max=255"`
	Template string          `json:"template" validate:"max=64"`
	Data     *ResumeDocument `json:"data"`
}

// UploadResponse is returned after a file is attached to a resume.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
