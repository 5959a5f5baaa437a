// Package client talks to the club backend API on behalf of the caller whose
// token the portal validated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

const maxBodyBytes = 4 << 20

type ctxKey int

const (
	tokenKey ctxKey = iota
	requestIDKey
)

// WithToken attaches the caller's bearer token to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom returns the bearer token stored in ctx.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// WithRequestID attaches the inbound request id so upstream logs can be joined.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Observer receives the timing of every upstream call.
type Observer interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// ClubClient is the facade over the club backend.
type ClubClient struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New constructs a client for baseURL. A zero timeout defaults to 10 seconds.
func New(baseURL string, timeout time.Duration, observer Observer, logger *zap.Logger) *ClubClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClubClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		observer: observer,
		logger:   logger,
	}
}

// ChangePassword updates the caller's password.
func (c *ClubClient) ChangePassword(ctx context.Context, current, next, confirm string) error {
	body := models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next, ConfirmPassword: confirm}
	return c.do(ctx, "change_password", http.MethodPost, "/auth/cambiar-password", nil, body, nil)
}

// ListMyParticipants lists the participants registered under the caller.
func (c *ClubClient) ListMyParticipants(ctx context.Context) ([]models.Participant, error) {
	var out []models.Participant
	if err := c.do(ctx, "list_participants", http.MethodGet, "/deportistas/mis-participantes", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOpenCourses lists courses currently accepting enrollments.
func (c *ClubClient) ListOpenCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.do(ctx, "list_open_courses", http.MethodGet, "/cursos/abiertos", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPublicGroups lists the groups of courseID with their occupancy.
func (c *ClubClient) ListPublicGroups(ctx context.Context, courseID int) ([]models.CourseGroup, error) {
	var out []models.CourseGroup
	path := fmt.Sprintf("/cursos/%d/grupos/publico", courseID)
	if err := c.do(ctx, "list_public_groups", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateEnrollment submits an enrollment.
func (c *ClubClient) CreateEnrollment(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error) {
	var out models.Enrollment
	if err := c.do(ctx, "create_enrollment", http.MethodPost, "/inscripciones", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns one page of users.
func (c *ClubClient) ListUsers(ctx context.Context, query models.ListQuery) (models.ListResult[models.User], error) {
	params := url.Values{}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		params.Set("perPage", strconv.Itoa(query.PerPage))
	}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.SortBy != "" {
		params.Set("sortBy", query.SortBy)
		params.Set("sortOrder", query.SortOrder)
	}
	for key, value := range query.Filters {
		if value != "" {
			params.Set(key, value)
		}
	}

	var raw json.RawMessage
	if err := c.do(ctx, "list_users", http.MethodGet, "/usuarios", params, nil, &raw); err != nil {
		return models.ListResult[models.User]{}, err
	}
	return decodePage[models.User](raw)
}

// CreateUser creates a user account.
func (c *ClubClient) CreateUser(ctx context.Context, payload models.UserPayload) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, "create_user", http.MethodPost, "/usuarios", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser updates a user account.
func (c *ClubClient) UpdateUser(ctx context.Context, id int, payload models.UserPayload) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, "update_user", http.MethodPut, fmt.Sprintf("/usuarios/%d", id), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser removes a user account.
func (c *ClubClient) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, "delete_user", http.MethodDelete, fmt.Sprintf("/usuarios/%d", id), nil, nil, nil)
}

// SetUserStatus changes only the status of a user.
func (c *ClubClient) SetUserStatus(ctx context.Context, id int, status models.UserStatus) error {
	body := models.UserStatusRequest{Status: status}
	return c.do(ctx, "set_user_status", http.MethodPatch, fmt.Sprintf("/usuarios/%d/estado", id), nil, body, nil)
}

// ListRoles returns every role. Bare arrays and {data: [...]} bodies are both accepted.
func (c *ClubClient) ListRoles(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	if err := c.do(ctx, "list_roles", http.MethodGet, "/roles", nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Role{}
	}
	return out, nil
}

// CreateRole creates a role.
func (c *ClubClient) CreateRole(ctx context.Context, payload models.RolePayload) (*models.Role, error) {
	var out models.Role
	if err := c.do(ctx, "create_role", http.MethodPost, "/roles", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRole updates a role.
func (c *ClubClient) UpdateRole(ctx context.Context, id int, payload models.RolePayload) (*models.Role, error) {
	var out models.Role
	if err := c.do(ctx, "update_role", http.MethodPut, fmt.Sprintf("/roles/%d", id), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRole removes a role.
func (c *ClubClient) DeleteRole(ctx context.Context, id int) error {
	return c.do(ctx, "delete_role", http.MethodDelete, fmt.Sprintf("/roles/%d", id), nil, nil, nil)
}

func (c *ClubClient) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		c.logger.Warn("upstream call failed", zap.String("operation", op), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		upstreamErr := decodeError(resp.StatusCode, payload)
		c.logger.Warn("upstream rejected request",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", upstreamErr.Message),
		)
		return upstreamErr
	}

	c.logger.Debug("upstream call", zap.String("operation", op), zap.Int("status", resp.StatusCode))

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(payload), out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "")
	}
	return nil
}

func (c *ClubClient) observe(op string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(op, status, d)
	}
}

// unwrapData strips one {"data": ...} envelope when present.
func unwrapData(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return trimmed
	}
	data, ok := envelope["data"]
	if !ok {
		return trimmed
	}
	// A page body carries its items in "data" next to the counters; keep it whole.
	if _, isPage := envelope["total"]; isPage {
		return trimmed
	}
	return data
}

func decodePage[T any](raw json.RawMessage) (models.ListResult[T], error) {
	var result models.ListResult[T]
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &result.Data); err != nil {
			return result, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "")
		}
		result.Page, result.Total, result.LastPage = 1, len(result.Data), 1
		result.PerPage = len(result.Data)
		return result, nil
	}
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return result, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "")
	}
	if result.Data == nil {
		result.Data = []T{}
	}
	if result.LastPage == 0 && result.PerPage > 0 {
		result.LastPage = (result.Total + result.PerPage - 1) / result.PerPage
	}
	return result, nil
}

// decodeError maps an upstream failure response to the portal error taxonomy.
// The message is left empty when the body carries none so screens can apply
// their own fallback.
func decodeError(status int, payload []byte) *appErrors.Error {
	message := extractMessage(payload)
	switch {
	case status == http.StatusUnauthorized:
		return appErrors.Wrap(nil, appErrors.ErrUnauthorized.Code, status, message)
	case status == http.StatusForbidden:
		return appErrors.Wrap(nil, appErrors.ErrForbidden.Code, status, message)
	case status >= http.StatusInternalServerError:
		return appErrors.Wrap(fmt.Errorf("upstream status %d", status), appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
	default:
		return appErrors.Wrap(nil, appErrors.ErrUpstreamValidation.Code, status, message)
	}
}

func extractMessage(payload []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if msg := flattenMessage(body.Message); msg != "" {
		return msg
	}
	var nested struct {
		Message json.RawMessage `json:"message"`
	}
	if len(body.Error) > 0 && body.Error[0] == '{' && json.Unmarshal(body.Error, &nested) == nil {
		return flattenMessage(nested.Message)
	}
	return flattenMessage(body.Error)
}

func flattenMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var single string
	if json.Unmarshal(raw, &single) == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return strings.Join(many, "; ")
	}
	return ""
}
