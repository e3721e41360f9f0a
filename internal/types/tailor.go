// Package types provides type definitions for structured data used throughout the resume-studio system.
package types

import "github.com/go-playground/validator/v10"

// Suggestion section constants. The generator addresses bullets by section
// name plus positional indices, not by entry IDs.
const (
	SectionExperience = "experience"
	SectionProjects   = "projects"
)

// BulletSuggestion is a coordinate-addressed rewrite proposal for one bullet.
// ItemIndex and BulletIndex are positions captured against the snapshot the
// generator analyzed, which may no longer match the live document.
type BulletSuggestion struct {
	Section     string   `json:"section"`
	ItemIndex   int      `json:"itemIndex"`
	BulletIndex int      `json:"bulletIndex"`
	Options     []string `json:"suggestions"`
}

// TailorResults is the full response of a tailor analysis.
type TailorResults struct {
	MissingKeywords   []string           `json:"missing_keywords"`
	SummarySuggestion string             `json:"summary_suggestion"`
	BulletSuggestions []BulletSuggestion `json:"bullet_suggestions"`
}

// TailorRequest is the request body for a tailor analysis. Exactly one of
// JobText or JobURL must be provided.
type TailorRequest struct {
	ResumeID string `json:"resume_id" validate:"required,uuid"`
	JobText  string `json:"job_text,omitempty"`
	JobURL   string `json:"job_url,omitempty"`
}

// RewriteTone selects the style for a single-bullet rewrite.
type RewriteTone string

// Supported rewrite tones.
const (
	ToneImpact    RewriteTone = "impact"
	ToneConcise   RewriteTone = "concise"
	ToneTechnical RewriteTone = "technical"
)

// RewriteBulletRequest is the request body for a single-bullet rewrite.
type RewriteBulletRequest struct {
	Bullet     string `json:"bullet" validate:"required,min=1"`
	Tone       string `json:"tone" validate:"omitempty,oneof=impact concise technical"`
	TargetRole string `json:"target_role,omitempty"`
}

// RewriteBulletResponse carries the generated alternatives.
type RewriteBulletResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Suggestion targets for ApplySuggestionRequest.
const (
	TargetBullet  = "bullet"
	TargetSummary = "summary"
)

// ApplySuggestionRequest is the request body for applying one suggestion
// with a chosen option. Target defaults to "bullet"; summary suggestions
// carry no coordinates.
type ApplySuggestionRequest struct {
	Target     string           `json:"target,omitempty" validate:"omitempty,oneof=bullet summary"`
	Suggestion BulletSuggestion `json:"suggestion"`
	ChosenText string           `json:"chosen_text" validate:"required,min=1"`
}

// Validate validates the TailorRequest using the validator.
func (r *TailorRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	return nil
}

// Validate validates the RewriteBulletRequest using the validator.
func (r *RewriteBulletRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ApplySuggestionRequest using the validator.
func (r *ApplySuggestionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
