package apiclient

import (
	"context"
	"net/http"
)

// ListCourses returns every course (GET /courses without parameters).
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	var out []Course
	if err := c.do(ctx, call{method: http.MethodGet, path: "/courses"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchCourses returns one page of courses matching params.
func (c *Client) SearchCourses(ctx context.Context, params SearchParams) (*PaginatedCourses, error) {
	var out PaginatedCourses
	err := c.do(ctx, call{method: http.MethodGet, path: "/courses", query: params.Values()}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCourse returns one course. A missing course is an *Error with status 404.
func (c *Client) GetCourse(ctx context.Context, id string) (*Course, error) {
	var out Course
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/courses/{id}",
		pathParams: map[string]string{"id": id},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCourse(ctx context.Context, req CourseRequest) (*Course, error) {
	var out Course
	if err := c.do(ctx, call{method: http.MethodPost, path: "/courses", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id string, update CourseUpdate) (*Course, error) {
	var out Course
	err := c.do(ctx, call{
		method:     http.MethodPut,
		path:       "/courses/{id}",
		pathParams: map[string]string{"id": id},
		body:       update,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/courses/{id}",
		pathParams: map[string]string{"id": id},
	}, nil)
}
