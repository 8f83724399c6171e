package services

import (
	"sort"

	"github.com/learnhub/learnhub-api/model"
)

// Lesson gating is computed on every read from the ordered lesson sequence
// and the student's completion set. There is no stored lock state; the
// lesson_progress ledger is the single source of truth.

// FlattenLessons returns a course's lessons in sequence order: modules
// ascending by Order, then lessons ascending by Order within each module.
// Order values are unique per scope; IDs break ties anyway so iteration
// order is deterministic.
func FlattenLessons(modules []model.Module) []model.Lesson {
	sorted := make([]model.Module, len(modules))
	copy(sorted, modules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	var flat []model.Lesson
	for _, m := range sorted {
		lessons := make([]model.Lesson, len(m.Lessons))
		copy(lessons, m.Lessons)
		sort.SliceStable(lessons, func(i, j int) bool {
			if lessons[i].Order != lessons[j].Order {
				return lessons[i].Order < lessons[j].Order
			}
			return lessons[i].ID < lessons[j].ID
		})
		flat = append(flat, lessons...)
	}
	return flat
}

// EvaluateLocks computes, for every lesson in the flattened sequence,
// whether it is currently locked for the student. Rules:
//   - the first lesson is always unlocked
//   - a preview lesson is never locked
//   - any other lesson unlocks when its immediate predecessor is completed
//
// A preview lesson does not need to be completed for its successor to
// unlock on preview grounds; the successor still waits on the preview
// lesson's own completion record.
func EvaluateLocks(ordered []model.Lesson, completed map[uint]bool) map[uint]bool {
	locks := make(map[uint]bool, len(ordered))
	for i, lesson := range ordered {
		switch {
		case i == 0, lesson.IsPreview:
			locks[lesson.ID] = false
		default:
			locks[lesson.ID] = !completed[ordered[i-1].ID]
		}
	}
	return locks
}

// Prerequisite returns the lesson immediately preceding lessonID in the
// flattened sequence, or nil for the first lesson / unknown IDs. Used to
// name the blocking lesson in sequential-access errors.
func Prerequisite(ordered []model.Lesson, lessonID uint) *model.Lesson {
	for i := range ordered {
		if ordered[i].ID == lessonID {
			if i == 0 {
				return nil
			}
			return &ordered[i-1]
		}
	}
	return nil
}
