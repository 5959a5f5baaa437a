package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveUpstream(operation string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, operation)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ClubClient, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	observer := &recordingObserver{}
	return New(srv.URL+"/", time.Second, observer, nil), observer
}

func TestClientForwardsTokenAndUnwrapsData(t *testing.T) {
	c, observer := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "req-9", r.Header.Get("X-Request-ID"))
		assert.Equal(t, "/deportistas/mis-participantes", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id_deportista":1,"nombres":"Ana","apellidos":"Pérez","categoria":{"nombre":"Infantil"}}]}`)
	})

	ctx := WithRequestID(WithToken(context.Background(), "tok-1"), "req-9")
	participants, err := c.ListMyParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Ana Pérez", participants[0].FullName())
	assert.Equal(t, "Infantil", participants[0].CategoryName())
	assert.Equal(t, []string{"list_participants"}, observer.calls)
}

func TestClientListRolesAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`[{"id_rol":1,"nombre":"Admin"}]`,
		`{"data":[{"id_rol":1,"nombre":"Admin"}]}`,
	}
	for _, body := range bodies {
		body := body
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		roles, err := c.ListRoles(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []models.Role{{ID: 1, Name: "Admin"}}, roles)
	}

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null}`)
	})
	roles, err := c.ListRoles(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, roles)
	assert.Empty(t, roles)
}

func TestClientListUsersSendsQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("perPage"))
		assert.Equal(t, "ana", q.Get("search"))
		assert.Equal(t, "email", q.Get("sortBy"))
		assert.Equal(t, "desc", q.Get("sortOrder"))
		assert.Equal(t, "activo", q.Get("status"))
		assert.Equal(t, "3", q.Get("id_rol"))
		_, _ = io.WriteString(w, `{"data":[{"id_usuario":7,"nombre":"Ana","apellido":"Pérez","email":"ana@example.com","status":"activo"}],"page":2,"perPage":20,"total":21,"lastPage":2}`)
	})

	page, err := c.ListUsers(context.Background(), models.ListQuery{
		Page: 2, PerPage: 20, Search: "ana", SortBy: "email", SortOrder: "desc",
		Filters: map[string]string{"status": "activo", "id_rol": "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 21, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.UserStatusActive, page.Data[0].Status)
}

func TestClientCreateEnrollmentPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{
			"id_curso": float64(10), "id_grupo": float64(101), "id_deportista": float64(1), "generar_factura": true,
		}, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id_inscripcion":55,"estado":"pendiente"}}`)
	})

	enrollment, err := c.CreateEnrollment(context.Background(), models.EnrollmentRequest{CourseID: 10, GroupID: 101, ParticipantID: 1, GenerateInvoice: true})
	require.NoError(t, err)
	assert.Equal(t, 55, enrollment.ID)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{name: "validation with message", status: http.StatusConflict, body: `{"message":"El grupo está lleno"}`, code: appErrors.ErrUpstreamValidation.Code, message: "El grupo está lleno"},
		{name: "validation list", status: http.StatusBadRequest, body: `{"message":["email inválido","nombre requerido"]}`, code: appErrors.ErrUpstreamValidation.Code, message: "email inválido; nombre requerido"},
		{name: "nested error", status: http.StatusUnprocessableEntity, body: `{"error":{"message":"Contraseña actual incorrecta"}}`, code: appErrors.ErrUpstreamValidation.Code, message: "Contraseña actual incorrecta"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, code: appErrors.ErrUnauthorized.Code},
		{name: "server error", status: http.StatusInternalServerError, body: `<html>oops</html>`, code: appErrors.ErrUpstream.Code},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			err := c.DeleteUser(context.Background(), 1)
			require.Error(t, err)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	observer := &recordingObserver{}
	c := New(srv.URL, time.Second, observer, nil)
	err := c.ChangePassword(context.Background(), "a", "b", "b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, "Error al cambiar la contraseña", appErrors.MessageOr(err, "Error al cambiar la contraseña"))
	assert.Equal(t, []string{"change_password"}, observer.calls)
}
