package portal

import (
	"context"
	"sync"

	"gradewatch/internal/failure"
	"gradewatch/internal/model"
)

var errInvalidAuthCode = failure.New(failure.KindInvalidCredential, "Invalid authcode")

// Mock is an in-memory portal for development and testing. Error fields,
// when set, are returned by the matching call.
type Mock struct {
	mu sync.Mutex

	SchoolID    string
	Profile     model.Profile
	Classes     []model.ClassInfo
	Grades      []model.RawGrade
	ValidCode   string // when set, Authenticate rejects other auth codes
	ResolveErr  error
	AuthErr     error
	CourseErr   error
	ClassesErr  error
	GradesErr   error
	ResolveHits int
	AuthHits    int
}

func (m *Mock) Name() string { return "mock" }

// SetGrades replaces the grade listing.
func (m *Mock) SetGrades(grades []model.RawGrade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Grades = grades
}

func (m *Mock) ResolveSchool(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResolveHits++
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	return m.SchoolID, nil
}

func (m *Mock) Authenticate(_ context.Context, creds model.Credentials) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuthHits++
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	if m.ValidCode != "" && creds.AuthCode != m.ValidCode {
		return nil, errInvalidAuthCode
	}
	return &mockSession{m: m}, nil
}

type mockSession struct {
	m *Mock
}

func (s *mockSession) Profile() model.Profile {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.Profile
}

func (s *mockSession) CurrentCourse(_ context.Context) (Course, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.CourseErr != nil {
		return nil, s.m.CourseErr
	}
	return &mockCourse{m: s.m}, nil
}

type mockCourse struct {
	m *Mock
}

func (c *mockCourse) Classes(_ context.Context) ([]model.ClassInfo, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.ClassesErr != nil {
		return nil, c.m.ClassesErr
	}
	return append([]model.ClassInfo(nil), c.m.Classes...), nil
}

func (c *mockCourse) Grades(_ context.Context) ([]model.RawGrade, error) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.m.GradesErr != nil {
		return nil, c.m.GradesErr
	}
	return append([]model.RawGrade(nil), c.m.Grades...), nil
}
