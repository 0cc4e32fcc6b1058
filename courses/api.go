package courses

import (
	"context"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/auth"
)

// API is the remote surface the definitions call. *apiclient.Client
// implements it.
type API interface {
	ListCourses(ctx context.Context) ([]apiclient.Course, error)
	SearchCourses(ctx context.Context, params apiclient.SearchParams) (*apiclient.PaginatedCourses, error)
	GetCourse(ctx context.Context, id string) (*apiclient.Course, error)
	CreateCourse(ctx context.Context, req apiclient.CourseRequest) (*apiclient.Course, error)
	UpdateCourse(ctx context.Context, id string, update apiclient.CourseUpdate) (*apiclient.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	CreateEnrollment(ctx context.Context, req apiclient.EnrollmentRequest) (*apiclient.Enrollment, error)
	StudentEnrollments(ctx context.Context, email string) (*apiclient.StudentEnrollments, error)

	CourseStudents(ctx context.Context, courseID string) (*apiclient.CourseStudents, error)
	RemoveStudentFromCourse(ctx context.Context, courseID, email string) error
	AdminStudents(ctx context.Context) ([]apiclient.Student, error)
	AdminEnrollments(ctx context.Context) ([]apiclient.Enrollment, error)
	DeleteEnrollment(ctx context.Context, enrollmentID string) error

	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.LoginResponse, error)
	Profile(ctx context.Context) (*apiclient.User, error)
	Tokens() auth.TokenStore
}

var _ API = (*apiclient.Client)(nil)
