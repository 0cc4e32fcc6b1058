package courses

import (
	"context"
	"strings"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/query"
)

// Stats are totals derived from the course list.
type Stats struct {
	Total        int
	ByDifficulty map[apiclient.Difficulty]int
}

// AllCourses is the legacy unpaginated course list.
func AllCourses(api API) query.Descriptor[[]apiclient.Course] {
	return query.NewDescriptor("course.list", CourseListKey(), api.ListCourses)
}

// SearchCourses is one page of search results. The previous page stays
// visible while the next one loads.
func SearchCourses(api API, params apiclient.SearchParams) query.Descriptor[apiclient.PaginatedCourses] {
	return query.NewDescriptor("course.search", CourseSearchKey(params),
		func(ctx context.Context) (apiclient.PaginatedCourses, error) {
			page, err := api.SearchCourses(ctx, params)
			if err != nil {
				return apiclient.PaginatedCourses{}, err
			}
			return *page, nil
		}).WithKeepPreviousData()
}

// Course is one course. It is disabled for an empty id. A 404 is terminal
// and is never retried.
func Course(api API, id string) query.Descriptor[apiclient.Course] {
	return query.NewDescriptor("course.detail", CourseDetailKey(id),
		func(ctx context.Context) (apiclient.Course, error) {
			c, err := api.GetCourse(ctx, id)
			if err != nil {
				return apiclient.Course{}, err
			}
			return *c, nil
		}).WithEnabled(strings.TrimSpace(id) != "")
}

// CourseStats counts courses per difficulty.
func CourseStats(api API) query.Descriptor[Stats] {
	return query.NewDescriptor("course.stats", CourseStatsKey(),
		func(ctx context.Context) (Stats, error) {
			all, err := api.ListCourses(ctx)
			if err != nil {
				return Stats{}, err
			}
			stats := Stats{Total: len(all), ByDifficulty: make(map[apiclient.Difficulty]int)}
			for _, c := range all {
				stats.ByDifficulty[c.Difficulty]++
			}
			return stats, nil
		})
}

// StudentEnrollments is one student's enrollments. It is disabled for an
// empty email.
func StudentEnrollments(api API, email string) query.Descriptor[apiclient.StudentEnrollments] {
	email = normalizeEmail(email)
	return query.NewDescriptor("enrollment.student", StudentEnrollmentsKey(email),
		func(ctx context.Context) (apiclient.StudentEnrollments, error) {
			out, err := api.StudentEnrollments(ctx, email)
			if err != nil {
				return apiclient.StudentEnrollments{}, err
			}
			return *out, nil
		}).WithEnabled(email != "")
}

// IsEnrolled reports whether the student is enrolled in the course. A failed
// lookup, such as for a student with no enrollments, reads as false.
func IsEnrolled(api API, email, courseID string) query.Descriptor[bool] {
	email = normalizeEmail(email)
	return query.NewDescriptor("enrollment.check", EnrollmentCheckKey(email, courseID),
		func(ctx context.Context) (bool, error) {
			out, err := api.StudentEnrollments(ctx, email)
			if err != nil {
				return false, nil
			}
			return out.Has(courseID), nil
		}).WithEnabled(email != "" && courseID != "")
}

// CourseStudents is one course's roster. It is always stale so every read
// refetches.
func CourseStudents(api API, courseID string) query.Descriptor[apiclient.CourseStudents] {
	return query.NewDescriptor("student.course", CourseStudentsKey(courseID),
		func(ctx context.Context) (apiclient.CourseStudents, error) {
			out, err := api.CourseStudents(ctx, courseID)
			if err != nil {
				return apiclient.CourseStudents{}, err
			}
			return *out, nil
		}).WithStaleTime(0).WithEnabled(courseID != "")
}

// AllStudents is the administrative student list.
func AllStudents(api API) query.Descriptor[[]apiclient.Student] {
	return query.NewDescriptor("student.admin", AdminStudentsKey(), api.AdminStudents)
}

// AllEnrollments is the administrative enrollment list.
func AllEnrollments(api API) query.Descriptor[[]apiclient.Enrollment] {
	return query.NewDescriptor("enrollment.admin", AdminEnrollmentsKey(), api.AdminEnrollments)
}

// Profile is the signed-in user.
func Profile(api API) query.Descriptor[apiclient.User] {
	return query.NewDescriptor("auth.profile", ProfileKey(),
		func(ctx context.Context) (apiclient.User, error) {
			u, err := api.Profile(ctx)
			if err != nil {
				return apiclient.User{}, err
			}
			return *u, nil
		})
}
