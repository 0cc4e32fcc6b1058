// Package apitest provides an in-memory course service for tests.
//
// Server speaks the same REST surface as the real service under /api/v1 and
// can inject failures, count requests and hold requests open, which the
// query and mutation tests use to observe retries and de-duplication.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jonwraymond/courseops/apiclient"
)

// Prefix is the API version path the server mounts under.
const Prefix = "/api/v1"

// Route names accepted by Calls, Fail, FailTransport and Block.
const (
	RouteListCourses      = "GET /courses"
	RouteGetCourse        = "GET /courses/:id"
	RouteCreateCourse     = "POST /courses"
	RouteUpdateCourse     = "PUT /courses/:id"
	RouteDeleteCourse     = "DELETE /courses/:id"
	RouteCreateEnrollment = "POST /enrollments"
	RouteStudentEnrolls   = "GET /students/:email/enrollments"
	RouteCourseStudents   = "GET /courses/:id/students"
	RouteRemoveStudent    = "DELETE /courses/:id/students/:email"
	RouteAdminStudents    = "GET /admin/students"
	RouteAdminEnrollments = "GET /admin/enrollments"
	RouteDeleteEnrollment = "DELETE /admin/enrollments/:id"
	RouteLogin            = "POST /auth/login"
	RouteProfile          = "GET /auth/profile"
	RouteHealth           = "GET /health"
)

const signingKey = "apitest-signing-key"

type fault struct {
	status    int
	transport bool
}

// Server is a fake course service.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	courses     map[string]apiclient.Course
	enrollments []apiclient.Enrollment
	users       map[string]user
	tokens      map[string]string
	calls       map[string]int
	faults      map[string][]fault
	gates       map[string]chan struct{}
	noHealth    bool
	tokenTTL    time.Duration
}

type user struct {
	apiclient.User
	password string
}

// New starts a server. Close it when done.
func New() *Server {
	s := &Server{
		courses:  make(map[string]apiclient.Course),
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		faults:   make(map[string][]fault),
		gates:    make(map[string]chan struct{}),
		tokenTTL: time.Hour,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group(Prefix, s.instrument)
	api.GET("/health", s.health)
	api.GET("/courses", s.listCourses)
	api.POST("/courses", s.createCourse)
	api.GET("/courses/:id", s.getCourse)
	api.PUT("/courses/:id", s.updateCourse)
	api.DELETE("/courses/:id", s.deleteCourse)
	api.GET("/courses/:id/students", s.courseStudents)
	api.DELETE("/courses/:id/students/:email", s.removeStudent)
	api.POST("/enrollments", s.createEnrollment)
	api.GET("/students/:email/enrollments", s.studentEnrollments)
	api.POST("/auth/login", s.login)
	api.GET("/auth/profile", s.profile, s.requireAuth)
	api.GET("/admin/students", s.adminStudents, s.requireAuth)
	api.GET("/admin/enrollments", s.adminEnrollments, s.requireAuth)
	api.DELETE("/admin/enrollments/:id", s.deleteEnrollment, s.requireAuth)

	s.Server = httptest.NewServer(e)
	return s
}

// BaseURL is the service root without the version prefix.
func (s *Server) BaseURL() string {
	return s.URL
}

// AddCourse seeds a course. An empty ID is replaced by a new UUID.
func (s *Server) AddCourse(c apiclient.Course) apiclient.Course {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	s.mu.Lock()
	s.courses[c.ID] = c
	s.mu.Unlock()
	return c
}

// Course returns a stored course.
func (s *Server) Course(id string) (apiclient.Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[id]
	return c, ok
}

// AddEnrollment seeds an enrollment without the duplicate check.
func (s *Server) AddEnrollment(email, courseID string) apiclient.Enrollment {
	en := apiclient.Enrollment{
		ID:           uuid.NewString(),
		StudentEmail: email,
		CourseID:     courseID,
		EnrolledAt:   time.Now().UTC().Truncate(time.Second),
	}
	s.mu.Lock()
	s.enrollments = append(s.enrollments, en)
	s.mu.Unlock()
	return en
}

// AddUser registers login credentials.
func (s *Server) AddUser(username, password, role string) {
	s.mu.Lock()
	s.users[username] = user{
		User: apiclient.User{
			ID:        uuid.NewString(),
			Username:  username,
			Role:      role,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
		password: password,
	}
	s.mu.Unlock()
}

// SetTokenTTL changes the lifetime of tokens issued by login.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	s.tokenTTL = ttl
	s.mu.Unlock()
}

// RevokeTokens makes every issued token invalid.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]string)
	s.mu.Unlock()
}

// DisableHealth makes GET /health answer 404.
func (s *Server) DisableHealth() {
	s.mu.Lock()
	s.noHealth = true
	s.mu.Unlock()
}

// Calls returns how many requests reached route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Fail makes the next n requests to route answer status.
func (s *Server) Fail(route string, status, n int) {
	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.faults[route] = append(s.faults[route], fault{status: status})
	}
	s.mu.Unlock()
}

// FailTransport makes the next n requests to route drop the connection
// without a response.
func (s *Server) FailTransport(route string, n int) {
	s.mu.Lock()
	for i := 0; i < n; i++ {
		s.faults[route] = append(s.faults[route], fault{transport: true})
	}
	s.mu.Unlock()
}

// Block holds requests to route open until release is called. The request
// is counted before it blocks.
func (s *Server) Block(route string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[route] == gate {
				delete(s.gates, route)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

func (s *Server) instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := c.Request().Method + " " + strings.TrimPrefix(c.Path(), Prefix)

		s.mu.Lock()
		s.calls[route]++
		gate := s.gates[route]
		var f *fault
		if queue := s.faults[route]; len(queue) > 0 {
			f = &queue[0]
			s.faults[route] = queue[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-c.Request().Context().Done():
				return nil
			}
		}

		if f != nil {
			if f.transport {
				// A malformed status line is never replayed by net/http,
				// unlike a bare EOF on a reused connection.
				conn, _, err := c.Response().Hijack()
				if err == nil {
					_, _ = conn.Write([]byte("HTTP/1.1 ???\r\n\r\n"))
					_ = conn.Close()
				}
				return nil
			}
			return errorJSON(c, f.status, "injected", "injected failure")
		}
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		s.mu.Lock()
		username, ok := s.tokens[token]
		s.mu.Unlock()
		if header == "" || !ok {
			return errorJSON(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
		}
		c.Set("username", username)
		return next(c)
	}
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiclient.ErrorPayload{Error: code, Message: message})
}

func (s *Server) health(c echo.Context) error {
	s.mu.Lock()
	disabled := s.noHealth
	s.mu.Unlock()
	if disabled {
		return errorJSON(c, http.StatusNotFound, "not_found", "Not Found")
	}
	return c.JSON(http.StatusOK, apiclient.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) sortedCourses() []apiclient.Course {
	out := make([]apiclient.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// listCourses answers the legacy array form when no query parameters are
// present, and the paginated form otherwise.
func (s *Server) listCourses(c echo.Context) error {
	s.mu.Lock()
	all := s.sortedCourses()
	s.mu.Unlock()

	if len(c.QueryParams()) == 0 {
		return c.JSON(http.StatusOK, all)
	}

	search := strings.ToLower(strings.TrimSpace(c.QueryParam("search")))
	difficulty := c.QueryParam("difficulty")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 10
	}

	filtered := make([]apiclient.Course, 0, len(all))
	for _, course := range all {
		if difficulty != "" && string(course.Difficulty) != difficulty {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(course.Title), search) &&
			!strings.Contains(strings.ToLower(course.Description), search) {
			continue
		}
		filtered = append(filtered, course)
	}

	total := len(filtered)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, apiclient.PaginatedCourses{
		Data: filtered[start:end],
		Pagination: apiclient.Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
			Limit:       limit,
		},
	})
}

func (s *Server) getCourse(c echo.Context) error {
	s.mu.Lock()
	course, ok := s.courses[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found", "Course not found")
	}
	return c.JSON(http.StatusOK, course)
}

func (s *Server) createCourse(c echo.Context) error {
	var req apiclient.CourseRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return errorJSON(c, http.StatusBadRequest, "validation_error", "Title and description are required")
	}
	course := s.AddCourse(apiclient.Course{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	})
	return c.JSON(http.StatusCreated, course)
}

func (s *Server) updateCourse(c echo.Context) error {
	var req apiclient.CourseUpdate
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[c.Param("id")]
	if !ok {
		return errorJSON(c, http.StatusNotFound, "not_found", "Course not found")
	}
	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Difficulty != nil {
		course.Difficulty = *req.Difficulty
	}
	s.courses[course.ID] = course
	return c.JSON(http.StatusOK, course)
}

func (s *Server) deleteCourse(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return errorJSON(c, http.StatusNotFound, "not_found", "Course not found")
	}
	delete(s.courses, id)
	kept := s.enrollments[:0]
	for _, en := range s.enrollments {
		if en.CourseID != id {
			kept = append(kept, en)
		}
	}
	s.enrollments = kept
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) courseStudents(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return errorJSON(c, http.StatusNotFound, "not_found", "Course not found")
	}
	students := []string{}
	for _, en := range s.enrollments {
		if en.CourseID == id {
			students = append(students, en.StudentEmail)
		}
	}
	return c.JSON(http.StatusOK, apiclient.CourseStudents{Students: students, Total: len(students)})
}

func (s *Server) removeStudent(c echo.Context) error {
	id, email := c.Param("id"), c.Param("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, en := range s.enrollments {
		if en.CourseID == id && en.StudentEmail == email {
			s.enrollments = append(s.enrollments[:i], s.enrollments[i+1:]...)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return errorJSON(c, http.StatusNotFound, "not_found", "Enrollment not found")
}

func (s *Server) createEnrollment(c echo.Context) error {
	var req apiclient.EnrollmentRequest
	if err := c.Bind(&req); err != nil || req.StudentEmail == "" || req.CourseID == "" {
		return errorJSON(c, http.StatusBadRequest, "validation_error", "student_email and course_id are required")
	}

	s.mu.Lock()
	course, ok := s.courses[req.CourseID]
	if !ok {
		s.mu.Unlock()
		return errorJSON(c, http.StatusNotFound, "not_found", "Course not found")
	}
	for _, en := range s.enrollments {
		if en.CourseID == req.CourseID && en.StudentEmail == req.StudentEmail {
			s.mu.Unlock()
			return errorJSON(c, http.StatusConflict, "conflict", "Student is already enrolled in this course")
		}
	}
	en := apiclient.Enrollment{
		ID:           uuid.NewString(),
		StudentEmail: req.StudentEmail,
		CourseID:     req.CourseID,
		EnrolledAt:   time.Now().UTC().Truncate(time.Second),
	}
	s.enrollments = append(s.enrollments, en)
	s.mu.Unlock()

	en.Course = &course
	return c.JSON(http.StatusCreated, en)
}

func (s *Server) studentEnrollments(c echo.Context) error {
	email := c.Param("email")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := apiclient.StudentEnrollments{StudentEmail: email, Enrollments: []apiclient.Enrollment{}}
	for _, en := range s.enrollments {
		if en.StudentEmail != email {
			continue
		}
		if course, ok := s.courses[en.CourseID]; ok {
			en.Course = &course
		}
		out.Enrollments = append(out.Enrollments, en)
	}
	out.Total = len(out.Enrollments)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) adminStudents(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byEmail := make(map[string]*apiclient.Student)
	order := []string{}
	for _, en := range s.enrollments {
		st, ok := byEmail[en.StudentEmail]
		if !ok {
			st = &apiclient.Student{ID: en.StudentEmail, Email: en.StudentEmail, EnrolledAt: en.EnrolledAt}
			byEmail[en.StudentEmail] = st
			order = append(order, en.StudentEmail)
		}
		st.CourseCount++
	}
	out := make([]apiclient.Student, 0, len(order))
	for _, email := range order {
		out = append(out, *byEmail[email])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) adminEnrollments(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]apiclient.Enrollment, len(s.enrollments))
	copy(out, s.enrollments)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteEnrollment(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, en := range s.enrollments {
		if en.ID == id {
			s.enrollments = append(s.enrollments[:i], s.enrollments[i+1:]...)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return errorJSON(c, http.StatusNotFound, "not_found", "Enrollment not found")
}

func (s *Server) login(c echo.Context) error {
	var req apiclient.LoginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	s.mu.Lock()
	u, ok := s.users[req.Username]
	ttl := s.tokenTTL
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		return errorJSON(c, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"role":     u.Role,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
		"jti":      uuid.NewString(),
	}).SignedString([]byte(signingKey))
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal_error", err.Error())
	}

	s.mu.Lock()
	s.tokens[token] = u.Username
	s.mu.Unlock()

	return c.JSON(http.StatusOK, apiclient.LoginResponse{Token: token, User: u.User})
}

func (s *Server) profile(c echo.Context) error {
	username, _ := c.Get("username").(string)
	s.mu.Lock()
	u := s.users[username]
	s.mu.Unlock()
	return c.JSON(http.StatusOK, u.User)
}
