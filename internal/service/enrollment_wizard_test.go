package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/format"
)

type enrollmentClientFake struct {
	mu            sync.Mutex
	participants  []models.Participant
	courses       []models.Course
	groups        map[int][]models.CourseGroup
	groupBlocks   map[int]chan struct{}
	groupsErr     error
	loadErr       error
	createErr     error
	createBlock   chan struct{}
	createEntered chan struct{}
	created       []models.EnrollmentRequest
	groupRequests []int
}

func (f *enrollmentClientFake) ListMyParticipants(context.Context) ([]models.Participant, error) {
	return f.participants, f.loadErr
}

func (f *enrollmentClientFake) ListOpenCourses(context.Context) ([]models.Course, error) {
	return f.courses, nil
}

func (f *enrollmentClientFake) ListPublicGroups(_ context.Context, courseID int) ([]models.CourseGroup, error) {
	f.mu.Lock()
	f.groupRequests = append(f.groupRequests, courseID)
	block := f.groupBlocks[courseID]
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return f.groups[courseID], nil
}

func (f *enrollmentClientFake) CreateEnrollment(_ context.Context, req models.EnrollmentRequest) (*models.Enrollment, error) {
	f.mu.Lock()
	f.created = append(f.created, req)
	block, entered := f.createBlock, f.createEntered
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Enrollment{ID: 555, CourseID: req.CourseID, GroupID: req.GroupID, ParticipantID: req.ParticipantID}, nil
}

func (f *enrollmentClientFake) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type receiptIssuerFake struct {
	issued []models.Receipt
	err    error
}

func (r *receiptIssuerFake) Issue(_ context.Context, receipt models.Receipt) (*dto.ReceiptLink, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.issued = append(r.issued, receipt)
	return &dto.ReceiptLink{Token: "tok", URL: "http://portal/receipts/tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func swimmingClient() *enrollmentClientFake {
	return &enrollmentClientFake{
		participants: []models.Participant{
			{ID: 10, FirstName: "Ana", LastName: "Pérez", Category: &models.Category{ID: 1, Name: "Infantil"}},
			{ID: 11, FirstName: "Luis", LastName: "Pérez"},
		},
		courses: []models.Course{
			{ID: 101, Name: "Natación", StartDate: "2025-01-05", EndDate: "2025-02-28", Price: 50},
			{ID: 102, Name: "Fútbol", StartDate: "2025-01-10", EndDate: "2025-02-20", Price: 35},
		},
		groups: map[int][]models.CourseGroup{
			101: {
				{ID: 2, CourseID: 101, Name: "Mañana", Capacity: 20, Occupancy: 20, StartTime: "08:00", EndTime: "10:00", DaysOfWeek: models.DaysOfWeek{"1", "3"}},
				{ID: 1, CourseID: 101, Name: "Tarde", Capacity: 20, Occupancy: 5, StartTime: "15:00", EndTime: "17:30", DaysOfWeek: models.DaysOfWeek{"2", "4"}},
			},
			102: {
				{ID: 7, CourseID: 102, Name: "Sábado", Capacity: 15, Occupancy: 3, StartTime: "09:00", EndTime: "11:00", DaysOfWeek: models.DaysOfWeek{"6"}},
			},
		},
	}
}

func newTestWizard(client *enrollmentClientFake, receipts receiptIssuer, audit auditRecorder) *EnrollmentWizard {
	return NewEnrollmentWizard(client, receipts, audit, format.New("es-ES", "USD"), "user-1", nil)
}

func TestEnrollmentWizardHappyPath(t *testing.T) {
	client := swimmingClient()
	receipts := &receiptIssuerFake{}
	audit := &auditRecorderMock{}
	wizard := newTestWizard(client, receipts, audit)
	ctx := context.Background()

	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))
	view := wizard.View()
	assert.Equal(t, string(StepParticipant), view.Step)
	assert.False(t, view.Loading)
	assert.False(t, view.CanContinue)
	require.Len(t, view.Participants, 2)
	assert.Equal(t, "Ana Pérez", view.Participants[0].Name)
	assert.Equal(t, "Infantil", view.Participants[0].Category)
	assert.Equal(t, "Sin categoría", view.Participants[1].Category)
	require.Len(t, view.Steps, 4)
	assert.Equal(t, "Participante", view.Steps[0].Label)
	assert.True(t, view.Steps[0].Active)

	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	assert.Equal(t, StepCourse, wizard.Step())

	require.NoError(t, wizard.SelectCourse(ctx, 101))
	view = wizard.View()
	assert.Equal(t, "50,00\u00a0US$", view.Courses[0].Price)
	assert.Equal(t, "5 ene 2025", view.Courses[0].StartDate)
	require.Len(t, view.Groups, 2)
	assert.False(t, view.Groups[0].Selectable)
	assert.Equal(t, "Lleno", view.Groups[0].Label)
	assert.True(t, view.Groups[1].Selectable)
	assert.Equal(t, "15 cupos", view.Groups[1].Label)
	assert.Equal(t, "3:00 PM - 5:30 PM", view.Groups[1].Schedule)
	assert.Equal(t, "Mar, Jue", view.Groups[1].Days)
	assert.True(t, view.Steps[0].Done)
	assert.False(t, view.Steps[1].Done)

	require.NoError(t, wizard.SelectGroup(1))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.SetPayment(dto.PaymentRequest{Method: models.PaymentCash, Reference: " REF-1 "}))

	view = wizard.View()
	assert.Equal(t, string(StepPayment), view.Step)
	require.NotNil(t, view.Summary)
	assert.Equal(t, models.EnrollmentSummary{
		Participant: "Ana Pérez",
		Course:      "Natación",
		Group:       "Tarde",
		Schedule:    "3:00 PM - 5:30 PM",
		Days:        "Mar, Jue",
		Price:       "50,00\u00a0US$",
	}, *view.Summary)
	assert.Equal(t, "REF-1", view.Reference)

	require.NoError(t, wizard.Submit(ctx))
	require.Len(t, client.created, 1)
	assert.Equal(t, models.EnrollmentRequest{CourseID: 101, GroupID: 1, ParticipantID: 10, GenerateInvoice: true}, client.created[0])

	view = wizard.View()
	assert.Equal(t, string(StepConfirmation), view.Step)
	assert.Equal(t, "¡Inscripción realizada! El administrador verificará tu pago.", view.Success)
	assert.Empty(t, view.Error)
	require.NotNil(t, view.Receipt)
	assert.Equal(t, "tok", view.Receipt.Token)
	assert.True(t, view.Steps[2].Done)
	assert.True(t, view.Steps[3].Active)

	require.Len(t, receipts.issued, 1)
	assert.Equal(t, "user-1", receipts.issued[0].OwnerID)
	assert.Equal(t, 555, receipts.issued[0].EnrollmentID)
	assert.Equal(t, models.PaymentCash, receipts.issued[0].PaymentMethod)
	assert.Equal(t, []string{models.AuditActionEnrollment}, audit.actions())
}

func TestEnrollmentWizardNoParticipants(t *testing.T) {
	client := swimmingClient()
	client.participants = nil
	wizard := newTestWizard(client, nil, nil)

	require.NoError(t, wizard.Mount(context.Background(), dto.EnrollmentDeepLink{CourseID: 101}))
	view := wizard.View()
	assert.Equal(t, string(StepNoParticipants), view.Step)
	assert.Empty(t, view.Steps)
	assert.Empty(t, client.groupRequests)
	assert.ErrorIs(t, wizard.Continue(), appErrors.ErrInvalidStep)
}

func TestEnrollmentWizardMountFailure(t *testing.T) {
	client := swimmingClient()
	client.loadErr = appErrors.Clone(appErrors.ErrUpstream, "")
	wizard := newTestWizard(client, nil, nil)

	err := wizard.Mount(context.Background(), dto.EnrollmentDeepLink{})
	require.Error(t, err)
	view := wizard.View()
	assert.False(t, view.Loading)
	assert.Equal(t, "Error al cargar datos", view.Error)
}

func TestEnrollmentWizardRejectsFullGroup(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.SelectCourse(ctx, 101))

	assert.ErrorIs(t, wizard.SelectGroup(2), appErrors.ErrGroupFull)
	assert.ErrorIs(t, wizard.SelectGroup(99), appErrors.ErrNotFound)
	assert.False(t, wizard.View().CanContinue)
	assert.ErrorIs(t, wizard.Continue(), appErrors.ErrSelectionIncomplete)
	assert.Equal(t, StepCourse, wizard.Step())
}

func TestEnrollmentWizardCourseChangeClearsGroup(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.SelectCourse(ctx, 101))
	require.NoError(t, wizard.SelectGroup(1))

	require.NoError(t, wizard.SelectCourse(ctx, 102))
	view := wizard.View()
	assert.False(t, view.CanContinue)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, "Sábado", view.Groups[0].Name)
	assert.Equal(t, "Sáb", view.Groups[0].Days)
}

func TestEnrollmentWizardDropsStaleGroups(t *testing.T) {
	client := swimmingClient()
	slow := make(chan struct{})
	client.groupBlocks = map[int]chan struct{}{101: slow}
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())

	done := make(chan error, 1)
	go func() { done <- wizard.SelectCourse(ctx, 101) }()
	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.groupRequests) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, wizard.View().LoadingGroups)

	require.NoError(t, wizard.SelectCourse(ctx, 102))
	close(slow)
	require.NoError(t, <-done)

	view := wizard.View()
	assert.False(t, view.LoadingGroups)
	require.Len(t, view.Groups, 1)
	assert.Equal(t, 7, view.Groups[0].ID)
	assert.True(t, view.Courses[1].Selected)
}

func TestEnrollmentWizardGroupLoadFailureShowsError(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())

	client.groupsErr = errors.New("boom")
	require.NoError(t, wizard.SelectCourse(ctx, 101))
	view := wizard.View()
	assert.NotNil(t, view.Groups)
	assert.Empty(t, view.Groups)
	assert.False(t, view.LoadingGroups)
	assert.Equal(t, "Error al cargar datos", view.Error)

	client.groupsErr = nil
	require.NoError(t, wizard.SelectCourse(ctx, 101))
	view = wizard.View()
	assert.Empty(t, view.Error)
	assert.Len(t, view.Groups, 2)
}

func TestEnrollmentWizardDeepLinkGroupLoadFailureShowsError(t *testing.T) {
	client := swimmingClient()
	client.groupsErr = errors.New("boom")
	wizard := newTestWizard(client, nil, nil)

	require.NoError(t, wizard.Mount(context.Background(), dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}))
	view := wizard.View()
	assert.Equal(t, "Error al cargar datos", view.Error)
	assert.Empty(t, view.Groups)
	for _, c := range view.Courses {
		if c.ID == 101 {
			assert.True(t, c.Selected)
		}
	}
}

func TestEnrollmentWizardDeepLink(t *testing.T) {
	cases := []struct {
		name       string
		link       dto.EnrollmentDeepLink
		wantCourse int
		wantGroup  bool
	}{
		{name: "course and open group", link: dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}, wantCourse: 101, wantGroup: true},
		{name: "course only", link: dto.EnrollmentDeepLink{CourseID: 101}, wantCourse: 101},
		{name: "full group ignored", link: dto.EnrollmentDeepLink{CourseID: 101, GroupID: 2}, wantCourse: 101},
		{name: "group of another course ignored", link: dto.EnrollmentDeepLink{CourseID: 101, GroupID: 7}, wantCourse: 101},
		{name: "closed course ignored", link: dto.EnrollmentDeepLink{CourseID: 999, GroupID: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := swimmingClient()
			wizard := newTestWizard(client, nil, nil)
			require.NoError(t, wizard.Mount(context.Background(), tc.link))

			view := wizard.View()
			assert.Equal(t, string(StepParticipant), view.Step)
			selectedCourse := 0
			for _, c := range view.Courses {
				if c.Selected {
					selectedCourse = c.ID
				}
			}
			assert.Equal(t, tc.wantCourse, selectedCourse)
			selectedGroup := false
			for _, g := range view.Groups {
				if g.Selected {
					selectedGroup = true
				}
			}
			assert.Equal(t, tc.wantGroup, selectedGroup)
			if tc.wantCourse == 0 {
				assert.Empty(t, client.groupRequests)
			}
		})
	}
}

func TestEnrollmentWizardDeepLinkSkipsToPayment(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	require.NoError(t, wizard.Mount(context.Background(), dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}))
	require.NoError(t, wizard.SelectParticipant(11))
	require.NoError(t, wizard.Continue())
	assert.True(t, wizard.View().CanContinue)
	require.NoError(t, wizard.Continue())
	assert.Equal(t, StepPayment, wizard.Step())
}

func TestEnrollmentWizardIncompleteSubmitMakesNoCall(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	require.NoError(t, wizard.Mount(context.Background(), dto.EnrollmentDeepLink{}))
	require.NoError(t, wizard.SelectParticipant(10))

	err := wizard.Submit(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrSelectionIncomplete)
	assert.Equal(t, "Completa todos los campos", wizard.View().Error)
	assert.Equal(t, 0, client.createdCount())
}

func TestEnrollmentWizardSubmitFailureStaysOnPayment(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "upstream message", err: appErrors.Clone(appErrors.ErrUpstreamValidation, "El participante ya está inscrito"), want: "El participante ya está inscrito"},
		{name: "no message", err: appErrors.Clone(appErrors.ErrUpstream, ""), want: "Error al inscribir"},
		{name: "plain error", err: errors.New("dial tcp: refused"), want: "Error al inscribir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := swimmingClient()
			client.createErr = tc.err
			audit := &auditRecorderMock{}
			wizard := newTestWizard(client, &receiptIssuerFake{}, audit)
			ctx := context.Background()
			require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}))
			require.NoError(t, wizard.SelectParticipant(10))
			require.NoError(t, wizard.Continue())
			require.NoError(t, wizard.Continue())

			require.Error(t, wizard.Submit(ctx))
			view := wizard.View()
			assert.Equal(t, string(StepPayment), view.Step)
			assert.Equal(t, tc.want, view.Error)
			assert.Empty(t, view.Success)
			assert.Nil(t, view.Receipt)
			assert.Empty(t, audit.actions())
		})
	}
}

func TestEnrollmentWizardRejectsDuplicateSubmit(t *testing.T) {
	client := swimmingClient()
	client.createBlock = make(chan struct{})
	client.createEntered = make(chan struct{}, 1)
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.Continue())

	done := make(chan error, 1)
	go func() { done <- wizard.Submit(ctx) }()
	<-client.createEntered

	assert.True(t, wizard.View().Submitting)
	assert.ErrorIs(t, wizard.Submit(ctx), appErrors.ErrRequestInFlight)
	assert.ErrorIs(t, wizard.Back(), appErrors.ErrRequestInFlight)

	close(client.createBlock)
	require.NoError(t, <-done)
	assert.Equal(t, 1, client.createdCount())
	assert.Equal(t, StepConfirmation, wizard.Step())
}

func TestEnrollmentWizardReceiptFailureDoesNotFailSubmit(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, &receiptIssuerFake{err: errors.New("cache down")}, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{CourseID: 101, GroupID: 1}))
	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.Continue())

	require.NoError(t, wizard.Submit(ctx))
	view := wizard.View()
	assert.Equal(t, string(StepConfirmation), view.Step)
	assert.Nil(t, view.Receipt)
}

func TestEnrollmentWizardStepGuards(t *testing.T) {
	client := swimmingClient()
	wizard := newTestWizard(client, nil, nil)
	ctx := context.Background()
	require.NoError(t, wizard.Mount(ctx, dto.EnrollmentDeepLink{}))

	assert.ErrorIs(t, wizard.SelectCourse(ctx, 101), appErrors.ErrInvalidStep)
	assert.ErrorIs(t, wizard.SetPayment(dto.PaymentRequest{}), appErrors.ErrInvalidStep)
	assert.ErrorIs(t, wizard.Back(), appErrors.ErrInvalidStep)
	assert.ErrorIs(t, wizard.SelectParticipant(404), appErrors.ErrNotFound)
	assert.ErrorIs(t, wizard.Continue(), appErrors.ErrSelectionIncomplete)

	require.NoError(t, wizard.SelectParticipant(10))
	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.Back())
	assert.Equal(t, StepParticipant, wizard.Step())

	require.NoError(t, wizard.Continue())
	require.NoError(t, wizard.SelectCourse(ctx, 101))
	require.NoError(t, wizard.SelectGroup(1))
	require.NoError(t, wizard.Continue())
	assert.ErrorIs(t, wizard.SetPayment(dto.PaymentRequest{Method: "cheque"}), appErrors.ErrValidation)
}
