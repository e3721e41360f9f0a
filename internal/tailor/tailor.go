// Package tailor generates coordinate-addressed rewrite suggestions for a
// resume snapshot against a job description. The generator is an external
// collaborator: any malformed or incomplete response is a hard failure
// surfaced to the caller, never retried or partially applied.
package tailor

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-studio/internal/llm"
	"github.com/jonathan/resume-studio/internal/prompts"
	"github.com/jonathan/resume-studio/internal/schemas"
	"github.com/jonathan/resume-studio/internal/types"
)

//go:embed tailor_results.schema.json
var tailorResultsSchema string

// GeneratorError indicates the upstream generator returned a malformed or
// incomplete response.
type GeneratorError struct {
	Message string
	Cause   error
}

func (e *GeneratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("suggestion generator error: %s: %v", e.Message, e.Cause)
	}
	return "suggestion generator error: " + e.Message
}

func (e *GeneratorError) Unwrap() error {
	return e.Cause
}

// Analyzer produces tailor suggestions using an LLM client.
type Analyzer struct {
	client llm.Client
}

// NewAnalyzer creates an Analyzer backed by the given LLM client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze compares the resume snapshot against the job text and returns
// missing keywords, a summary suggestion and coordinate-addressed bullet
// suggestions. The coordinates index the snapshot as rendered here; the
// caller validates them against the live document at apply time.
func (a *Analyzer) Analyze(ctx context.Context, jobText string, snapshot types.ResumeData) (*types.TailorResults, error) {
	if strings.TrimSpace(jobText) == "" {
		return nil, fmt.Errorf("job text is required")
	}

	system := prompts.MustGet("tailor.json", "analyze-system")
	user := prompts.Format(prompts.MustGet("tailor.json", "analyze-user"), map[string]string{
		"JobText": jobText,
		"Resume":  RenderSnapshot(snapshot),
	})
	prompt := system + "\n\n" + llm.BuildExtractionPrompt(tailorResultsExtractionSchema(), user)

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &GeneratorError{Message: "generation failed", Cause: err}
	}

	if err := schemas.ValidateJSONString(tailorResultsSchema, raw); err != nil {
		return nil, &GeneratorError{Message: "response failed schema validation", Cause: err}
	}

	var results types.TailorResults
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, &GeneratorError{Message: "response is not valid JSON", Cause: err}
	}

	return &results, nil
}

// tailorResultsExtractionSchema describes the expected output structure for
// the prompt. The authoritative contract is the embedded JSON Schema; this
// only shapes the instruction text.
func tailorResultsExtractionSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name:        "TailorResults",
		Description: "Produce resume tailoring suggestions for the job description and resume below.",
		Fields: []llm.SchemaField{
			{
				Name:        "missing_keywords",
				Type:        `["string"]`,
				Description: "Keywords from the job description that are missing or underrepresented in the resume",
				Required:    true,
			},
			{
				Name:        "summary_suggestion",
				Type:        `"string"`,
				Description: "A tailored professional summary based on existing resume content. Must not invent experience",
				Required:    true,
			},
			{
				Name:        "bullet_suggestions",
				Type:        `[{"section": "experience"|"projects", "itemIndex": int, "bulletIndex": int, "suggestions": ["string", "string", "string"]}]`,
				Description: "Bullet rewrites addressed by the bracketed indices in the resume; exactly 3 rewrites per bullet, meaning preserved",
				Required:    true,
			},
		},
	}
}

// RenderSnapshot produces the compact indexed text representation of the
// resume that the generator's coordinates refer to. Experience and project
// items and their bullets carry explicit [i] indices.
func RenderSnapshot(doc types.ResumeData) string {
	var sb strings.Builder

	if doc.Contact != nil {
		sb.WriteString(fmt.Sprintf("Contact: %s | %s | %s\n", doc.Contact.Name, doc.Contact.Email, doc.Contact.Phone))
	}
	if doc.Summary != "" {
		sb.WriteString("Summary: " + doc.Summary + "\n")
	}

	if len(doc.Skills) > 0 {
		var groups []string
		for _, s := range doc.Skills {
			groups = append(groups, fmt.Sprintf("%s: %s", s.Category, s.Skills))
		}
		sb.WriteString("Skills: " + strings.Join(groups, "; ") + "\n")
	}

	if len(doc.Experience) > 0 {
		sb.WriteString("\nExperience:\n")
		for i, exp := range doc.Experience {
			sb.WriteString(fmt.Sprintf("[%d] %s at %s (%s - %s)\n", i, exp.Role, exp.Company, exp.StartDate, exp.EndDate))
			for j, bullet := range exp.Bullets {
				sb.WriteString(fmt.Sprintf("  [%d] %s\n", j, bullet))
			}
		}
	}

	if len(doc.Projects) > 0 {
		sb.WriteString("\nProjects:\n")
		for i, proj := range doc.Projects {
			sb.WriteString(fmt.Sprintf("[%d] %s (tech: %s)\n", i, proj.Name, proj.TechStack))
			for j, bullet := range proj.Bullets {
				sb.WriteString(fmt.Sprintf("  [%d] %s\n", j, bullet))
			}
		}
	}

	if len(doc.Education) > 0 {
		sb.WriteString("\nEducation:\n")
		for _, edu := range doc.Education {
			sb.WriteString(fmt.Sprintf("%s from %s (%s - %s)\n", edu.Degree, edu.School, edu.StartDate, edu.EndDate))
		}
	}

	return sb.String()
}
