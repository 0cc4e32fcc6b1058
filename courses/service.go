package courses

import (
	"context"
	"strings"

	"github.com/jonwraymond/courseops/apiclient"
	"github.com/jonwraymond/courseops/mutation"
)

// Service runs the course mutations with input validation in front.
// Invalid input returns an error wrapping ErrInvalidInput and never reaches
// the API.
type Service struct {
	api    API
	runner *mutation.Runner
}

// NewService creates a Service.
func NewService(api API, runner *mutation.Runner) *Service {
	return &Service{api: api, runner: runner}
}

// API returns the remote API the service writes to.
func (s *Service) API() API {
	return s.api
}

// CreateCourse validates req and creates the course.
func (s *Service) CreateCourse(ctx context.Context, req apiclient.CourseRequest, hooks ...mutation.Hooks[apiclient.CourseRequest, apiclient.Course]) (apiclient.Course, error) {
	req, err := ValidateCourse(req)
	if err != nil {
		return apiclient.Course{}, err
	}
	return mutation.Mutate(ctx, s.runner, CreateCourseMutation(s.api), req, hooks...)
}

// UpdateCourse validates the changed fields and updates the course.
func (s *Service) UpdateCourse(ctx context.Context, id string, update apiclient.CourseUpdate) (apiclient.Course, error) {
	update, err := ValidateCourseUpdate(id, update)
	if err != nil {
		return apiclient.Course{}, err
	}
	in := UpdateCourseInput{ID: strings.TrimSpace(id), Update: update}
	return mutation.Mutate(ctx, s.runner, UpdateCourseMutation(s.api), in)
}

// DeleteCourse deletes the course with id.
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("id is required")
	}
	_, err := mutation.Mutate(ctx, s.runner, DeleteCourseMutation(s.api), id)
	return err
}

// Enroll validates req and enrolls the student.
func (s *Service) Enroll(ctx context.Context, req apiclient.EnrollmentRequest, hooks ...mutation.Hooks[apiclient.EnrollmentRequest, apiclient.Enrollment]) (apiclient.Enrollment, error) {
	req, err := ValidateEnrollment(req)
	if err != nil {
		return apiclient.Enrollment{}, err
	}
	return mutation.Mutate(ctx, s.runner, CreateEnrollmentMutation(s.api), req, hooks...)
}

// RemoveStudent removes the student with email from the course.
func (s *Service) RemoveStudent(ctx context.Context, courseID, email string) error {
	email, err := ValidateEmail(email)
	if err != nil {
		return err
	}
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return invalid("course id is required")
	}
	_, err = mutation.Mutate(ctx, s.runner, RemoveStudentMutation(s.api), RemoveStudentInput{CourseID: courseID, Email: email})
	return err
}

// DeleteEnrollment deletes the enrollment with id.
func (s *Service) DeleteEnrollment(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("enrollment id is required")
	}
	_, err := mutation.Mutate(ctx, s.runner, DeleteEnrollmentMutation(s.api), id)
	return err
}

// Login signs in and stores the token.
func (s *Service) Login(ctx context.Context, username, password string) (apiclient.LoginResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apiclient.LoginResponse{}, invalid("username and password are required")
	}
	return mutation.Mutate(ctx, s.runner, LoginMutation(s.api), apiclient.LoginRequest{Username: username, Password: password})
}
