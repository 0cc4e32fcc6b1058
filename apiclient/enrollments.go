package apiclient

import (
	"context"
	"net/http"
)

// CreateEnrollment enrolls a student. The server answers 409 when the
// student is already enrolled and 404 when the course does not exist.
func (c *Client) CreateEnrollment(ctx context.Context, req EnrollmentRequest) (*Enrollment, error) {
	var out Enrollment
	if err := c.do(ctx, call{method: http.MethodPost, path: "/enrollments", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StudentEnrollments(ctx context.Context, email string) (*StudentEnrollments, error) {
	var out StudentEnrollments
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/students/{email}/enrollments",
		pathParams: map[string]string{"email": email},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
