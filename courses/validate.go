package courses

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonwraymond/courseops/apiclient"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("courses: invalid input")

var validate = validator.New(validator.WithRequiredStructEnabled())

type courseInput struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"required"`
	Difficulty  string `validate:"required,oneof=Beginner Intermediate Advanced"`
}

type courseUpdateInput struct {
	ID          string  `validate:"required"`
	Title       *string `validate:"omitnil,min=1,max=255"`
	Description *string `validate:"omitnil,min=1"`
	Difficulty  *string `validate:"omitnil,oneof=Beginner Intermediate Advanced"`
}

type enrollmentInput struct {
	StudentEmail string `validate:"required,email"`
	CourseID     string `validate:"required,uuid"`
}

type emailInput struct {
	Email string `validate:"required,email"`
}

// ValidateCourse trims and checks a course request.
func ValidateCourse(req apiclient.CourseRequest) (apiclient.CourseRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	err := check(courseInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  string(req.Difficulty),
	})
	return req, err
}

// ValidateCourseUpdate trims and checks the fields present in update.
func ValidateCourseUpdate(id string, update apiclient.CourseUpdate) (apiclient.CourseUpdate, error) {
	in := courseUpdateInput{ID: strings.TrimSpace(id)}
	if update.Title != nil {
		t := strings.TrimSpace(*update.Title)
		update.Title, in.Title = &t, &t
	}
	if update.Description != nil {
		d := strings.TrimSpace(*update.Description)
		update.Description, in.Description = &d, &d
	}
	if update.Difficulty != nil {
		d := string(*update.Difficulty)
		in.Difficulty = &d
	}
	return update, check(in)
}

// ValidateEnrollment trims and lower-cases the email and checks that the
// course id is a UUID.
func ValidateEnrollment(req apiclient.EnrollmentRequest) (apiclient.EnrollmentRequest, error) {
	req.StudentEmail = normalizeEmail(req.StudentEmail)
	req.CourseID = strings.TrimSpace(req.CourseID)
	return req, check(enrollmentInput(req))
}

// ValidateEmail trims, lower-cases and checks a student email.
func ValidateEmail(email string) (string, error) {
	email = normalizeEmail(email)
	return email, check(emailInput{Email: email})
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must not be empty"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " must be a UUID"
	default:
		return field + " failed " + fe.Tag()
	}
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
