package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/internal/repository"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
)

type roleClientFake struct {
	mu        sync.Mutex
	roles     []models.Role
	listCalls int
	created   []models.RolePayload
	updated   map[int]models.RolePayload
	deleted   []int
	saveErr   error
	deleteErr error
}

func newRoleClientFake() *roleClientFake {
	return &roleClientFake{
		roles:   []models.Role{{ID: 1, Name: "Administrador"}, {ID: 2, Name: "Representante", Description: "Padres y tutores"}},
		updated: map[int]models.RolePayload{},
	}
}

func (f *roleClientFake) ListRoles(context.Context) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]models.Role{}, f.roles...), nil
}

func (f *roleClientFake) CreateRole(_ context.Context, payload models.RolePayload) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.created = append(f.created, payload)
	role := models.Role{ID: len(f.roles) + 1, Name: payload.Name, Description: payload.Description}
	f.roles = append(f.roles, role)
	return &role, nil
}

func (f *roleClientFake) UpdateRole(_ context.Context, id int, payload models.RolePayload) (*models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.updated[id] = payload
	return &models.Role{ID: id, Name: payload.Name}, nil
}

func (f *roleClientFake) DeleteRole(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type invalidatorSpy struct {
	calls int
}

func (s *invalidatorSpy) Invalidate(context.Context) { s.calls++ }

func TestRoleScreenMountExposesCount(t *testing.T) {
	screen := NewRoleScreen(newRoleClientFake(), nil, nil, nil)
	require.NoError(t, screen.Mount(context.Background()))

	view := screen.View()
	assert.Equal(t, 2, view.Count)
	assert.False(t, view.Loading)
	assert.Nil(t, view.Form)
}

func TestRoleScreenCreateInvalidatesDropdown(t *testing.T) {
	client := newRoleClientFake()
	spy := &invalidatorSpy{}
	audit := &auditRecorderMock{}
	screen := NewRoleScreen(client, spy, audit, nil)
	ctx := context.Background()
	require.NoError(t, screen.Mount(ctx))

	require.NoError(t, screen.OpenCreate())
	err := screen.SubmitForm(ctx, dto.RoleForm{Name: "  "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, "El nombre del rol es obligatorio", screen.View().Form.Error)
	assert.Empty(t, client.created)
	assert.Equal(t, 0, spy.calls)

	require.NoError(t, screen.SubmitForm(ctx, dto.RoleForm{Name: "Entrenador", Description: "Staff deportivo"}))
	assert.Equal(t, []models.RolePayload{{Name: "Entrenador", Description: "Staff deportivo"}}, client.created)
	assert.Equal(t, 1, spy.calls)

	view := screen.View()
	assert.Nil(t, view.Form)
	assert.Equal(t, 3, view.Count)
	assert.Equal(t, "Rol creado", view.Success)
	assert.Equal(t, []string{models.AuditActionRoleCreate}, audit.actions())
}

func TestRoleScreenEditAndDelete(t *testing.T) {
	client := newRoleClientFake()
	spy := &invalidatorSpy{}
	screen := NewRoleScreen(client, spy, nil, nil)
	ctx := context.Background()
	require.NoError(t, screen.Mount(ctx))

	require.NoError(t, screen.OpenEdit(2))
	form := screen.View().Form
	require.NotNil(t, form)
	assert.Equal(t, dto.FormEdit, form.Mode)
	assert.Equal(t, "Padres y tutores", form.Values.Description)

	require.NoError(t, screen.SubmitForm(ctx, dto.RoleForm{Name: "Representante legal"}))
	assert.Equal(t, "Representante legal", client.updated[2].Name)

	require.NoError(t, screen.AskDelete(2))
	assert.Equal(t, "¿Eliminar rol?", screen.View().Delete.Title)
	require.NoError(t, screen.ConfirmDelete(ctx))
	assert.Equal(t, []int{2}, client.deleted)
	assert.Equal(t, 2, spy.calls)
	assert.Nil(t, screen.View().Delete)
}

func TestRoleScreenFailuresKeepState(t *testing.T) {
	client := newRoleClientFake()
	client.saveErr = appErrors.Clone(appErrors.ErrUpstream, "")
	client.deleteErr = appErrors.Clone(appErrors.ErrUpstreamValidation, "El rol tiene usuarios asignados")
	spy := &invalidatorSpy{}
	screen := NewRoleScreen(client, spy, nil, nil)
	ctx := context.Background()
	require.NoError(t, screen.Mount(ctx))

	require.NoError(t, screen.OpenCreate())
	require.Error(t, screen.SubmitForm(ctx, dto.RoleForm{Name: "Entrenador"}))
	view := screen.View()
	require.NotNil(t, view.Form)
	assert.Equal(t, "Error al guardar el rol", view.Form.Error)
	require.NoError(t, screen.CloseForm())

	require.NoError(t, screen.AskDelete(1))
	require.Error(t, screen.ConfirmDelete(ctx))
	view = screen.View()
	assert.Nil(t, view.Delete)
	assert.Equal(t, "El rol tiene usuarios asignados", view.Error)
	assert.Equal(t, 0, spy.calls)
	assert.ErrorIs(t, screen.AskDelete(42), appErrors.ErrNotFound)
}

func TestRoleSourceCachesUntilInvalidated(t *testing.T) {
	client := newRoleClientFake()
	cache := NewCacheService(repository.NewMemoryCache(), nil, time.Minute, nil)
	source := NewRoleSource(client, cache, time.Minute, nil)
	ctx := context.Background()

	roles, err := source.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
	_, err = source.Roles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCalls)

	screen := NewRoleScreen(client, source, nil, nil)
	require.NoError(t, screen.Mount(ctx))
	require.NoError(t, screen.OpenCreate())
	require.NoError(t, screen.SubmitForm(ctx, dto.RoleForm{Name: "Entrenador"}))

	roles, err = source.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}

func TestRoleSourceWithoutCacheReadsThrough(t *testing.T) {
	client := newRoleClientFake()
	source := NewRoleSource(client, nil, 0, nil)

	for i := 0; i < 3; i++ {
		_, err := source.Roles(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, client.listCalls)
	source.Invalidate(context.Background())
}
