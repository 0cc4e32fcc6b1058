package courses

import (
	"strings"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/cache"
)

// Key roots.
const (
	RootCourses     = "courses"
	RootEnrollments = "enrollments"
	RootStudents    = "students"
	RootAuth        = "auth"
)

// CoursesKey covers every course entry.
func CoursesKey() cache.Key { return cache.NewKey(RootCourses) }

// CourseListKey is the legacy unpaginated list.
func CourseListKey() cache.Key { return CoursesKey().Append("list") }

// CourseDetailsKey covers every course detail entry.
func CourseDetailsKey() cache.Key { return CoursesKey().Append("detail") }

// CourseDetailKey is one course.
func CourseDetailKey(id string) cache.Key { return CourseDetailsKey().Append(id) }

// CourseSearchesKey covers every search page.
func CourseSearchesKey() cache.Key { return CoursesKey().Append("search") }

// CourseSearchKey is one search page. Every parameter is part of the key, so
// each filter and page combination is cached on its own.
func CourseSearchKey(params apiclient.SearchParams) cache.Key {
	params.Query = strings.TrimSpace(params.Query)
	if params.Page < 1 {
		params.Page = 1
	}
	return CourseSearchesKey().Append(params)
}

// CourseStatsKey holds totals derived from the course list.
func CourseStatsKey() cache.Key { return CoursesKey().Append("stats") }

// EnrollmentsKey covers every enrollment entry.
func EnrollmentsKey() cache.Key { return cache.NewKey(RootEnrollments) }

// StudentEnrollmentsKey is one student's enrollment list.
func StudentEnrollmentsKey(email string) cache.Key {
	return EnrollmentsKey().Append("student", normalizeEmail(email))
}

type enrollmentCheck struct {
	StudentEmail string `json:"studentEmail"`
	CourseID     string `json:"courseId"`
}

// EnrollmentCheckKey is the is-enrolled flag for one student and course.
func EnrollmentCheckKey(email, courseID string) cache.Key {
	return EnrollmentsKey().Append("check", enrollmentCheck{StudentEmail: normalizeEmail(email), CourseID: courseID})
}

// AdminEnrollmentsKey is the administrative enrollment list.
func AdminEnrollmentsKey() cache.Key { return EnrollmentsKey().Append("admin") }

// StudentsKey covers every student entry.
func StudentsKey() cache.Key { return cache.NewKey(RootStudents) }

// CourseStudentsKey is one course's roster.
func CourseStudentsKey(courseID string) cache.Key { return StudentsKey().Append("course", courseID) }

// AdminStudentsKey is the administrative student list.
func AdminStudentsKey() cache.Key { return StudentsKey().Append("admin") }

// ProfileKey is the signed-in user.
func ProfileKey() cache.Key { return cache.NewKey(RootAuth, "profile") }

// AllKey matches every entry.
func AllKey() cache.Key { return cache.Key{} }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
