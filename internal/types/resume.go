// Package types provides type definitions for structured data used throughout the resume-studio system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/google/uuid"

// ContactInfo holds the contact header of a resume. All fields are plain
// strings and may be empty.
type ContactInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Location string `json:"location"`
}

// ExperienceItem is a single work experience entry. ID is assigned once at
// creation and never recomputed from position.
type ExperienceItem struct {
	ID        string   `json:"id"`
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	Location  string   `json:"location"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Bullets   []string `json:"bullets"`
}

// ProjectItem is a single project entry with an ordered bullet list.
type ProjectItem struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Link      string   `json:"link"`
	TechStack string   `json:"techStack"`
	Bullets   []string `json:"bullets"`
}

// EducationItem is a single education entry. No bullets.
type EducationItem struct {
	ID        string `json:"id"`
	School    string `json:"school"`
	Degree    string `json:"degree"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Details   string `json:"details"`
}

// SkillCategory groups a comma-separated skill list under a category label.
type SkillCategory struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Skills   string `json:"skills"`
}

// ResumeData is the full in-memory resume document. All collections are
// ordered; order controls render and print order and is user-reorderable.
type ResumeData struct {
	Contact    *ContactInfo     `json:"contact,omitempty"`
	Summary    string           `json:"summary,omitempty"`
	Skills     []SkillCategory  `json:"skills,omitempty"`
	Experience []ExperienceItem `json:"experience,omitempty"`
	Projects   []ProjectItem    `json:"projects,omitempty"`
	Education  []EducationItem  `json:"education,omitempty"`
}

// NewExperienceItem creates an experience entry with a fresh stable ID and a
// single empty bullet slot for the editor.
func NewExperienceItem() ExperienceItem {
	return ExperienceItem{
		ID:      uuid.New().String(),
		Bullets: []string{""},
	}
}

// NewProjectItem creates a project entry with a fresh stable ID and a single
// empty bullet slot.
func NewProjectItem() ProjectItem {
	return ProjectItem{
		ID:      uuid.New().String(),
		Bullets: []string{""},
	}
}

// NewEducationItem creates an education entry with a fresh stable ID.
func NewEducationItem() EducationItem {
	return EducationItem{ID: uuid.New().String()}
}

// NewSkillCategory creates a skill group with a fresh stable ID.
func NewSkillCategory() SkillCategory {
	return SkillCategory{ID: uuid.New().String()}
}
