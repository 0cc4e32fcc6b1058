package apiclient

import (
	"context"
	"net/http"
)

// CourseStudents returns the roster of a course.
func (c *Client) CourseStudents(ctx context.Context, courseID string) (*CourseStudents, error) {
	var out CourseStudents
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/courses/{id}/students",
		pathParams: map[string]string{"id": courseID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveStudentFromCourse(ctx context.Context, courseID, email string) error {
	return c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/courses/{id}/students/{email}",
		pathParams: map[string]string{"id": courseID, "email": email},
	}, nil)
}

// AdminStudents lists every student. Admin only.
func (c *Client) AdminStudents(ctx context.Context) ([]Student, error) {
	var out []Student
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/students"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminEnrollments lists every enrollment. Admin only.
func (c *Client) AdminEnrollments(ctx context.Context) ([]Enrollment, error) {
	var out []Enrollment
	if err := c.do(ctx, call{method: http.MethodGet, path: "/admin/enrollments"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEnrollment removes one enrollment by id. Admin only.
func (c *Client) DeleteEnrollment(ctx context.Context, enrollmentID string) error {
	return c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/admin/enrollments/{id}",
		pathParams: map[string]string{"id": enrollmentID},
	}, nil)
}
