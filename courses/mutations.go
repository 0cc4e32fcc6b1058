package courses

import (
	"context"
	"fmt"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/mutation"
)

// UpdateCourseInput identifies the course to change and the new fields.
type UpdateCourseInput struct {
	ID     string
	Update apiclient.CourseUpdate
}

// RemoveStudentInput identifies one enrollment by course and student.
type RemoveStudentInput struct {
	CourseID string
	Email    string
}

// Unit is the result of writes that return no body.
type Unit struct{}

// CreateCourseMutation creates a course, refreshes lists and searches and
// seeds the new detail entry so opening it needs no fetch.
func CreateCourseMutation(api API) mutation.Descriptor[apiclient.CourseRequest, apiclient.Course] {
	return mutation.Descriptor[apiclient.CourseRequest, apiclient.Course]{
		Name: "course.create",
		Mutate: func(ctx context.Context, in apiclient.CourseRequest) (apiclient.Course, error) {
			c, err := api.CreateCourse(ctx, in)
			if err != nil {
				return apiclient.Course{}, err
			}
			return *c, nil
		},
		Rules: func(_ apiclient.CourseRequest, out apiclient.Course) []cache.Rule {
			return []cache.Rule{
				cache.Invalidate(CourseListKey()),
				cache.Invalidate(CourseSearchesKey()),
				cache.Invalidate(CourseStatsKey()),
				cache.Set(CourseDetailKey(out.ID), out),
			}
		},
	}
}

// UpdateCourseMutation updates a course, writes the new detail entry and
// refreshes lists and searches.
func UpdateCourseMutation(api API) mutation.Descriptor[UpdateCourseInput, apiclient.Course] {
	return mutation.Descriptor[UpdateCourseInput, apiclient.Course]{
		Name: "course.update",
		Mutate: func(ctx context.Context, in UpdateCourseInput) (apiclient.Course, error) {
			c, err := api.UpdateCourse(ctx, in.ID, in.Update)
			if err != nil {
				return apiclient.Course{}, err
			}
			return *c, nil
		},
		Rules: func(in UpdateCourseInput, out apiclient.Course) []cache.Rule {
			return []cache.Rule{
				cache.Set(CourseDetailKey(in.ID), out),
				cache.Invalidate(CourseListKey()),
				cache.Invalidate(CourseSearchesKey()),
				cache.Invalidate(CourseStatsKey()),
			}
		},
	}
}

// DeleteCourseMutation deletes a course and removes its detail entry so a
// deleted course is never rendered from cache.
func DeleteCourseMutation(api API) mutation.Descriptor[string, Unit] {
	return mutation.Descriptor[string, Unit]{
		Name: "course.delete",
		Mutate: func(ctx context.Context, id string) (Unit, error) {
			return Unit{}, api.DeleteCourse(ctx, id)
		},
		Rules: func(id string, _ Unit) []cache.Rule {
			return []cache.Rule{
				cache.Remove(CourseDetailKey(id)),
				cache.Remove(CourseStudentsKey(id)),
				cache.Invalidate(CoursesKey()),
				cache.Invalidate(CourseSearchesKey()),
			}
		},
	}
}

// CreateEnrollmentMutation enrolls a student and marks the enrollment check
// true without waiting for a refetch.
func CreateEnrollmentMutation(api API) mutation.Descriptor[apiclient.EnrollmentRequest, apiclient.Enrollment] {
	return mutation.Descriptor[apiclient.EnrollmentRequest, apiclient.Enrollment]{
		Name: "enrollment.create",
		Mutate: func(ctx context.Context, in apiclient.EnrollmentRequest) (apiclient.Enrollment, error) {
			en, err := api.CreateEnrollment(ctx, in)
			if err != nil {
				return apiclient.Enrollment{}, err
			}
			return *en, nil
		},
		Rules: func(in apiclient.EnrollmentRequest, out apiclient.Enrollment) []cache.Rule {
			email, courseID := out.StudentEmail, out.CourseID
			if email == "" {
				email = in.StudentEmail
			}
			if courseID == "" {
				courseID = in.CourseID
			}
			check := EnrollmentCheckKey(email, courseID)
			return []cache.Rule{
				cache.Invalidate(StudentEnrollmentsKey(email)),
				cache.Invalidate(check),
				cache.Set(check, true),
				cache.Invalidate(CourseStudentsKey(courseID)),
			}
		},
	}
}

// RemoveStudentMutation removes a student from a course and refreshes the
// roster and the administrative lists.
func RemoveStudentMutation(api API) mutation.Descriptor[RemoveStudentInput, Unit] {
	return mutation.Descriptor[RemoveStudentInput, Unit]{
		Name: "student.remove",
		Mutate: func(ctx context.Context, in RemoveStudentInput) (Unit, error) {
			return Unit{}, api.RemoveStudentFromCourse(ctx, in.CourseID, in.Email)
		},
		Rules: func(in RemoveStudentInput, _ Unit) []cache.Rule {
			return []cache.Rule{
				cache.Invalidate(CourseStudentsKey(in.CourseID)),
				cache.Invalidate(AdminStudentsKey()),
				cache.Invalidate(AdminEnrollmentsKey()),
				cache.Invalidate(StudentEnrollmentsKey(in.Email)),
				cache.Set(EnrollmentCheckKey(in.Email, in.CourseID), false),
			}
		},
	}
}

// DeleteEnrollmentMutation deletes an enrollment by id and refreshes every
// student entry.
func DeleteEnrollmentMutation(api API) mutation.Descriptor[string, Unit] {
	return mutation.Descriptor[string, Unit]{
		Name: "enrollment.delete",
		Mutate: func(ctx context.Context, id string) (Unit, error) {
			return Unit{}, api.DeleteEnrollment(ctx, id)
		},
		Rules: func(string, Unit) []cache.Rule {
			return []cache.Rule{
				cache.Invalidate(StudentsKey()),
			}
		},
	}
}

// LoginMutation exchanges credentials for a token, stores it and refreshes
// every entry, since what a user may see depends on who is signed in.
func LoginMutation(api API) mutation.Descriptor[apiclient.LoginRequest, apiclient.LoginResponse] {
	return mutation.Descriptor[apiclient.LoginRequest, apiclient.LoginResponse]{
		Name: "auth.login",
		Mutate: func(ctx context.Context, in apiclient.LoginRequest) (apiclient.LoginResponse, error) {
			resp, err := api.Login(ctx, in)
			if err != nil {
				return apiclient.LoginResponse{}, err
			}
			if err := api.Tokens().SetToken(ctx, resp.Token); err != nil {
				return apiclient.LoginResponse{}, fmt.Errorf("store token: %w", err)
			}
			return *resp, nil
		},
		Rules: func(_ apiclient.LoginRequest, out apiclient.LoginResponse) []cache.Rule {
			return []cache.Rule{
				cache.Invalidate(AllKey()),
				cache.Set(ProfileKey(), out.User),
			}
		},
	}
}
