// Package readiness computes a checklist of resume-quality checks over a
// resume document. Evaluation is a pure function of the document and is safe
// to call on every render.
package readiness

import (
	"math"
	"regexp"

	"github.com/jonathan/resume-studio/internal/types"
)

// minSummaryLength is the character threshold for the summary check.
const minSummaryLength = 50

var metricsPattern = regexp.MustCompile(`\d|[%$]`)

// Check is one readiness predicate result.
type Check struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

// Report is the full readiness evaluation.
type Report struct {
	Checks     []Check `json:"checks"`
	Passed     int     `json:"passed"`
	Total      int     `json:"total"`
	Percentage int     `json:"percentage"`
}

// Evaluate runs all readiness checks against the document.
func Evaluate(doc types.ResumeData) Report {
	checks := []Check{
		{
			ID:     "contact",
			Label:  "Contact information complete",
			Passed: doc.Contact != nil && doc.Contact.Name != "" && doc.Contact.Email != "" && doc.Contact.Phone != "",
		},
		{
			ID:     "summary",
			Label:  "Professional summary included",
			Passed: len(doc.Summary) > minSummaryLength,
		},
		{
			ID:     "experience",
			Label:  "Work experience with details",
			Passed: len(doc.Experience) > 0 && len(doc.Experience[0].Bullets) > 0,
		},
		{
			ID:     "metrics",
			Label:  "Quantifiable achievements (metrics)",
			Passed: hasMetrics(doc.Experience),
		},
		{
			ID:     "skills",
			Label:  "Skills section present",
			Passed: len(doc.Skills) > 0,
		},
		{
			ID:     "length",
			Label:  "Appropriate resume length",
			Passed: true, // no length estimation yet; mirrors the editor's always-on check
		},
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	return Report{
		Checks:     checks,
		Passed:     passed,
		Total:      len(checks),
		Percentage: int(math.Round(100 * float64(passed) / float64(len(checks)))),
	}
}

// hasMetrics reports whether any bullet across all experience entries
// contains a digit or a currency/percent symbol.
func hasMetrics(experience []types.ExperienceItem) bool {
	for _, exp := range experience {
		for _, bullet := range exp.Bullets {
			if metricsPattern.MatchString(bullet) {
				return true
			}
		}
	}
	return false
}
