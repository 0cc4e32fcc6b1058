package apiclient

import (
	"strconv"
	"strings"
	"time"
)

// Difficulty is a course level.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Difficulties lists the valid levels in display order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Course is the server's course resource.
type Course struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	ImageURL    string     `json:"image_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CourseRequest is the body of POST /courses.
type CourseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}

// CourseUpdate is the partial body of PUT /courses/{id}. Nil fields are
// left unchanged.
type CourseUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Difficulty  *Difficulty `json:"difficulty,omitempty"`
}

// SearchParams filter and paginate GET /courses. The zero value lists the
// first page with the server's default limit. The JSON form is part of the
// search cache key.
type SearchParams struct {
	Query      string     `json:"query,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Page       int        `json:"page,omitempty"`
	Limit      int        `json:"limit,omitempty"`
}

// Values returns the query string parameters. The page is always sent,
// defaulting to 1, so the server answers in the paginated form; other zero
// values are omitted and the search text is trimmed.
func (p SearchParams) Values() map[string]string {
	v := make(map[string]string, 4)
	page := p.Page
	if page < 1 {
		page = 1
	}
	v["page"] = strconv.Itoa(page)
	if p.Limit > 0 {
		v["limit"] = strconv.Itoa(p.Limit)
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		v["search"] = q
	}
	if p.Difficulty != "" {
		v["difficulty"] = string(p.Difficulty)
	}
	return v
}

// Pagination describes one page of a paginated list.
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
	Limit       int  `json:"limit"`
}

// PaginatedCourses is the response of a course search.
type PaginatedCourses struct {
	Data       []Course   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Enrollment links a student email to a course.
type Enrollment struct {
	ID           string    `json:"id"`
	StudentEmail string    `json:"student_email"`
	CourseID     string    `json:"course_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
	Course       *Course   `json:"course,omitempty"`
}

// EnrollmentRequest is the body of POST /enrollments.
type EnrollmentRequest struct {
	StudentEmail string `json:"student_email"`
	CourseID     string `json:"course_id"`
}

// StudentEnrollments is the response of GET /students/{email}/enrollments.
type StudentEnrollments struct {
	StudentEmail string       `json:"student_email"`
	Total        int          `json:"total"`
	Enrollments  []Enrollment `json:"enrollments"`
}

// Has reports whether the student is enrolled in courseID.
func (s *StudentEnrollments) Has(courseID string) bool {
	if s == nil {
		return false
	}
	for _, e := range s.Enrollments {
		if e.CourseID == courseID {
			return true
		}
	}
	return false
}

// CourseStudents is the roster of one course.
type CourseStudents struct {
	Students []string `json:"students"`
	Total    int      `json:"total"`
}

// Student is an entry of the admin student list.
type Student struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	CourseCount int       `json:"course_count,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the authenticated staff member.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse is the response of POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// HealthStatus is the response of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
