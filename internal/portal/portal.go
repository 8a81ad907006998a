// Package portal defines the student-information portal capability and
// its adapters.
package portal

import (
	"context"

	"gradewatch/internal/model"
)

// Portal resolves schools and opens sessions.
type Portal interface {
	ResolveSchool(ctx context.Context, name string) (string, error)
	Authenticate(ctx context.Context, creds model.Credentials) (Session, error)
	Name() string
}

// Session is an authenticated portal session.
type Session interface {
	CurrentCourse(ctx context.Context) (Course, error)
	Profile() model.Profile
}

// Course exposes the classes and full grade listing of one course.
type Course interface {
	Classes(ctx context.Context) ([]model.ClassInfo, error)
	Grades(ctx context.Context) ([]model.RawGrade, error)
}
