package resume

import "github.com/jonathan/resume-studio/internal/types"

// UpdaterFunc transforms a document into its successor. Implementations must
// be pure: they must not mutate the input in place, and must return a value
// that shares unmodified substructures with the input. Everything that edits
// the document, including suggestion application, goes through this contract
// so the autosave engine can observe edits without knowing what changed.
type UpdaterFunc func(current types.ResumeData) types.ResumeData

// SetContact returns an updater that replaces the contact record.
func SetContact(contact types.ContactInfo) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		c := contact
		doc.Contact = &c
		return doc
	}
}

// SetSummary returns an updater that replaces the summary text.
func SetSummary(summary string) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		doc.Summary = summary
		return doc
	}
}

// AppendExperience returns an updater that appends a new experience entry.
func AppendExperience(item types.ExperienceItem) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		experience := make([]types.ExperienceItem, len(doc.Experience), len(doc.Experience)+1)
		copy(experience, doc.Experience)
		doc.Experience = append(experience, item)
		return doc
	}
}

// RemoveExperience returns an updater that removes the entry with the given
// stable ID. Unknown IDs leave the document unchanged.
func RemoveExperience(id string) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		idx := -1
		for i, item := range doc.Experience {
			if item.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return doc
		}
		experience := make([]types.ExperienceItem, 0, len(doc.Experience)-1)
		experience = append(experience, doc.Experience[:idx]...)
		experience = append(experience, doc.Experience[idx+1:]...)
		doc.Experience = experience
		return doc
	}
}

// MoveExperience returns an updater that moves the entry with the given ID by
// delta positions (negative is up). Moves past either end clamp to a no-op.
func MoveExperience(id string, delta int) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		idx := -1
		for i, item := range doc.Experience {
			if item.ID == id {
				idx = i
				break
			}
		}
		target := idx + delta
		if idx < 0 || target < 0 || target >= len(doc.Experience) {
			return doc
		}
		experience := make([]types.ExperienceItem, len(doc.Experience))
		copy(experience, doc.Experience)
		experience[idx], experience[target] = experience[target], experience[idx]
		doc.Experience = experience
		return doc
	}
}

// UpdateExperience returns an updater that replaces the entry with the given
// ID using fn. fn receives a copy; mutating its bullet slice requires
// reallocating it.
func UpdateExperience(id string, fn func(types.ExperienceItem) types.ExperienceItem) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		for i, item := range doc.Experience {
			if item.ID != id {
				continue
			}
			experience := make([]types.ExperienceItem, len(doc.Experience))
			copy(experience, doc.Experience)
			experience[i] = fn(item)
			doc.Experience = experience
			return doc
		}
		return doc
	}
}

// SetExperienceBullet returns an updater that replaces one bullet of the
// entry with the given ID. Out-of-range indices leave the document unchanged.
func SetExperienceBullet(id string, bulletIndex int, text string) UpdaterFunc {
	return UpdateExperience(id, func(item types.ExperienceItem) types.ExperienceItem {
		if bulletIndex < 0 || bulletIndex >= len(item.Bullets) {
			return item
		}
		bullets := make([]string, len(item.Bullets))
		copy(bullets, item.Bullets)
		bullets[bulletIndex] = text
		item.Bullets = bullets
		return item
	})
}

// AppendProject returns an updater that appends a new project entry.
func AppendProject(item types.ProjectItem) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		projects := make([]types.ProjectItem, len(doc.Projects), len(doc.Projects)+1)
		copy(projects, doc.Projects)
		doc.Projects = append(projects, item)
		return doc
	}
}

// RemoveProject returns an updater that removes the project with the given ID.
func RemoveProject(id string) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		idx := -1
		for i, item := range doc.Projects {
			if item.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return doc
		}
		projects := make([]types.ProjectItem, 0, len(doc.Projects)-1)
		projects = append(projects, doc.Projects[:idx]...)
		projects = append(projects, doc.Projects[idx+1:]...)
		doc.Projects = projects
		return doc
	}
}

// MoveProject returns an updater that moves the project with the given ID by
// delta positions (negative is up). Moves past either end clamp to a no-op.
func MoveProject(id string, delta int) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		idx := -1
		for i, item := range doc.Projects {
			if item.ID == id {
				idx = i
				break
			}
		}
		target := idx + delta
		if idx < 0 || target < 0 || target >= len(doc.Projects) {
			return doc
		}
		projects := make([]types.ProjectItem, len(doc.Projects))
		copy(projects, doc.Projects)
		projects[idx], projects[target] = projects[target], projects[idx]
		doc.Projects = projects
		return doc
	}
}

// UpdateProject returns an updater that replaces the project with the given
// ID using fn.
func UpdateProject(id string, fn func(types.ProjectItem) types.ProjectItem) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		for i, item := range doc.Projects {
			if item.ID != id {
				continue
			}
			projects := make([]types.ProjectItem, len(doc.Projects))
			copy(projects, doc.Projects)
			projects[i] = fn(item)
			doc.Projects = projects
			return doc
		}
		return doc
	}
}

// SetSkills returns an updater that replaces the skills collection.
func SetSkills(skills []types.SkillCategory) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		doc.Skills = skills
		return doc
	}
}

// SetEducation returns an updater that replaces the education collection.
func SetEducation(education []types.EducationItem) UpdaterFunc {
	return func(doc types.ResumeData) types.ResumeData {
		doc.Education = education
		return doc
	}
}
