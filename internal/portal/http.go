package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gradewatch/internal/failure"
	"gradewatch/internal/model"

	"github.com/shopspring/decimal"
)

// HTTPPortal implements Portal against the portal's JSON REST API.
type HTTPPortal struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPPortal creates a portal client with optional proxy support.
func NewHTTPPortal(baseURL, proxyURL string) *HTTPPortal {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPPortal{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (p *HTTPPortal) Name() string { return "http" }

type schoolDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionRequest struct {
	SchoolID string `json:"school_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	AuthCode string `json:"auth_code,omitempty"`
}

type sessionDTO struct {
	Token   string `json:"token"`
	Profile struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"profile"`
}

type courseDTO struct {
	ID string `json:"id"`
}

type gradeDTO struct {
	Grade  string `json:"grade"`
	Period string `json:"period"`
	Type   string `json:"type"`
	Class  struct {
		ID           string `json:"id"`
		Abbreviation string `json:"abbreviation"`
	} `json:"class"`
	Description string          `json:"description"`
	Weight      decimal.Decimal `json:"weight"`
	Passed      bool            `json:"passed"`
	FilledIn    time.Time       `json:"filled_in"`
}

func (g gradeDTO) toModel() model.RawGrade {
	return model.RawGrade{
		Value:       g.Grade,
		Kind:        model.ClassifyGrade(g.Period, g.Type),
		Class:       model.ClassRef{ID: g.Class.ID, Abbreviation: g.Class.Abbreviation},
		Description: g.Description,
		Weight:      g.Weight,
		Passed:      g.Passed,
		FilledIn:    g.FilledIn,
	}
}

func (p *HTTPPortal) ResolveSchool(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/schools?q=%s", p.BaseURL, url.QueryEscape(name))
	var schools []schoolDTO
	if err := p.do(ctx, http.MethodGet, endpoint, "", nil, &schools); err != nil {
		return "", fmt.Errorf("resolve school %q: %w", name, err)
	}
	for _, s := range schools {
		if strings.EqualFold(s.Name, name) {
			return s.ID, nil
		}
	}
	if len(schools) == 0 {
		return "", failure.New(failure.KindGeneric, fmt.Sprintf("no school found for %q", name))
	}
	return schools[0].ID, nil
}

func (p *HTTPPortal) Authenticate(ctx context.Context, creds model.Credentials) (Session, error) {
	req := sessionRequest{
		SchoolID: creds.SchoolID,
		Username: creds.Username,
		Password: creds.Password,
		AuthCode: creds.AuthCode,
	}
	var dto sessionDTO
	if err := p.do(ctx, http.MethodPost, p.BaseURL+"/api/sessions", "", req, &dto); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if dto.Token == "" {
		return nil, failure.New(failure.KindMalformedPayload, "authenticate: empty session token")
	}
	return &httpSession{
		p:     p,
		token: dto.Token,
		profile: model.Profile{
			FirstName: dto.Profile.FirstName,
			LastName:  dto.Profile.LastName,
		},
	}, nil
}

type httpSession struct {
	p       *HTTPPortal
	token   string
	profile model.Profile
}

func (s *httpSession) Profile() model.Profile { return s.profile }

func (s *httpSession) CurrentCourse(ctx context.Context) (Course, error) {
	var dto courseDTO
	if err := s.p.do(ctx, http.MethodGet, s.p.BaseURL+"/api/courses/current", s.token, nil, &dto); err != nil {
		return nil, fmt.Errorf("current course: %w", err)
	}
	return &httpCourse{s: s, id: dto.ID}, nil
}

type httpCourse struct {
	s  *httpSession
	id string
}

func (c *httpCourse) endpoint(resource string) string {
	return fmt.Sprintf("%s/api/courses/%s/%s", c.s.p.BaseURL, url.PathEscape(c.id), resource)
}

func (c *httpCourse) Classes(ctx context.Context) ([]model.ClassInfo, error) {
	var classes []model.ClassInfo
	if err := c.s.p.do(ctx, http.MethodGet, c.endpoint("classes"), c.s.token, nil, &classes); err != nil {
		return nil, fmt.Errorf("fetch classes: %w", err)
	}
	return classes, nil
}

func (c *httpCourse) Grades(ctx context.Context) ([]model.RawGrade, error) {
	var dtos []gradeDTO
	if err := c.s.p.do(ctx, http.MethodGet, c.endpoint("grades"), c.s.token, nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch grades: %w", err)
	}
	grades := make([]model.RawGrade, len(dtos))
	for i, d := range dtos {
		grades[i] = d.toModel()
	}
	return grades, nil
}

func (p *HTTPPortal) do(ctx context.Context, method, endpoint, token string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return failure.Wrap(failure.KindTransport, err, fmt.Sprintf("%s %s: %v", method, endpoint, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Wrap(failure.KindTransport, err, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return failure.Wrap(failure.KindMalformedPayload, err, fmt.Sprintf("decode response: %v", err))
	}
	return nil
}

// statusError turns a non-2xx response body into an Error. The portal
// answers either with plain text or with a JSON object carrying a message.
func statusError(status int, body []byte) *failure.Error {
	var fe *failure.Error
	text := strings.TrimSpace(string(body))
	if text == "" {
		fe = failure.New(failure.KindGeneric, fmt.Sprintf("portal error: status %d", status))
	} else {
		fe = failure.Normalize(failure.Text(text))
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		fe.Kind = failure.KindInvalidCredential
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		fe.Kind = failure.KindTransport
	}
	return fe
}
