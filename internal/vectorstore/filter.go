package vectorstore

import "fmt"

// Filter restricts a chunk search to a course and optionally a lesson.
// The zero value matches everything.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}

// buildFilter returns the Filter for a resolved course title and lesson
// number. Both constraints are optional; the combinations are
// none / course only / lesson only / course and lesson.
func buildFilter(courseTitle string, lessonNumber *int) Filter {
	return Filter{CourseTitle: courseTitle, LessonNumber: lessonNumber}
}

// clause renders the filter as a SQL predicate with positional placeholders
// starting at argOffset. An empty filter yields an empty clause.
func (f Filter) clause(argOffset int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.CourseTitle != "" {
		conds = append(conds, fmt.Sprintf("course_title = $%d", argOffset+len(args)))
		args = append(args, f.CourseTitle)
	}
	if f.LessonNumber != nil {
		conds = append(conds, fmt.Sprintf("lesson_number = $%d", argOffset+len(args)))
		args = append(args, *f.LessonNumber)
	}

	switch len(conds) {
	case 0:
		return "", nil
	case 1:
		return "WHERE " + conds[0], args
	default:
		return "WHERE " + conds[0] + " AND " + conds[1], args
	}
}

// Matches reports whether a chunk satisfies the filter. The search queries
// apply the same constraints in SQL; Matches exists so tests can verify the
// two stay in agreement.
func (f Filter) Matches(meta ChunkMeta) bool {
	if f.CourseTitle != "" && meta.CourseTitle != f.CourseTitle {
		return false
	}
	if f.LessonNumber != nil {
		if meta.LessonNumber == nil || *meta.LessonNumber != *f.LessonNumber {
			return false
		}
	}
	return true
}
