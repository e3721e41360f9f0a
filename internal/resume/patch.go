// Package resume provides the update contract and coordinate-based patch
// application for the resume document.
package resume

import (
	"fmt"

	"github.com/jonathan/resume-studio/internal/types"
)

// ErrUnknownSection indicates a suggestion addressed a section that does not
// accept bullet patches.
type ErrUnknownSection struct {
	Section string
}

func (e *ErrUnknownSection) Error() string {
	return fmt.Sprintf("unknown suggestion section: %q", e.Section)
}

// ErrStaleItemIndex indicates the suggestion's item index is out of bounds
// against the current document. Expected when entries were added, removed or
// reordered after the snapshot the suggestion was generated from.
type ErrStaleItemIndex struct {
	Section   string
	ItemIndex int
	Length    int
}

func (e *ErrStaleItemIndex) Error() string {
	return fmt.Sprintf("stale item index %d for section %q (current length %d)", e.ItemIndex, e.Section, e.Length)
}

// ErrStaleBulletIndex indicates the suggestion's bullet index is out of bounds
// against the addressed entry's current bullet list.
type ErrStaleBulletIndex struct {
	Section     string
	ItemIndex   int
	BulletIndex int
	Length      int
}

func (e *ErrStaleBulletIndex) Error() string {
	return fmt.Sprintf("stale bullet index %d for %s[%d] (current bullet count %d)", e.BulletIndex, e.Section, e.ItemIndex, e.Length)
}

// ApplyBulletSuggestion replaces the bullet addressed by the suggestion's
// coordinates with chosenText and returns the new document. Coordinates are
// validated against the current document, never against the snapshot the
// suggestion was generated from; an out-of-bounds coordinate fails with a
// stale-index error and the input document is returned unchanged.
//
// Only the path from the document root to the replaced bullet is freshly
// allocated. Every other entry, and every other bullet of the addressed
// entry, is shared with the input, so callers can detect change at any level
// by reference comparison.
func ApplyBulletSuggestion(doc types.ResumeData, s types.BulletSuggestion, chosenText string) (types.ResumeData, error) {
	switch s.Section {
	case types.SectionExperience:
		if s.ItemIndex < 0 || s.ItemIndex >= len(doc.Experience) {
			return doc, &ErrStaleItemIndex{Section: s.Section, ItemIndex: s.ItemIndex, Length: len(doc.Experience)}
		}
		item := doc.Experience[s.ItemIndex]
		if s.BulletIndex < 0 || s.BulletIndex >= len(item.Bullets) {
			return doc, &ErrStaleBulletIndex{Section: s.Section, ItemIndex: s.ItemIndex, BulletIndex: s.BulletIndex, Length: len(item.Bullets)}
		}

		bullets := make([]string, len(item.Bullets))
		copy(bullets, item.Bullets)
		bullets[s.BulletIndex] = chosenText
		item.Bullets = bullets

		experience := make([]types.ExperienceItem, len(doc.Experience))
		copy(experience, doc.Experience)
		experience[s.ItemIndex] = item

		doc.Experience = experience
		return doc, nil

	case types.SectionProjects:
		if s.ItemIndex < 0 || s.ItemIndex >= len(doc.Projects) {
			return doc, &ErrStaleItemIndex{Section: s.Section, ItemIndex: s.ItemIndex, Length: len(doc.Projects)}
		}
		item := doc.Projects[s.ItemIndex]
		if s.BulletIndex < 0 || s.BulletIndex >= len(item.Bullets) {
			return doc, &ErrStaleBulletIndex{Section: s.Section, ItemIndex: s.ItemIndex, BulletIndex: s.BulletIndex, Length: len(item.Bullets)}
		}

		bullets := make([]string, len(item.Bullets))
		copy(bullets, item.Bullets)
		bullets[s.BulletIndex] = chosenText
		item.Bullets = bullets

		projects := make([]types.ProjectItem, len(doc.Projects))
		copy(projects, doc.Projects)
		projects[s.ItemIndex] = item

		doc.Projects = projects
		return doc, nil

	default:
		return doc, &ErrUnknownSection{Section: s.Section}
	}
}

// ApplySummarySuggestion replaces the document summary. The degenerate scalar
// case of suggestion application: no coordinate validation is needed.
func ApplySummarySuggestion(doc types.ResumeData, text string) types.ResumeData {
	doc.Summary = text
	return doc
}
