package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/format"
)

// WizardStep names a step of the enrollment wizard.
type WizardStep string

const (
	StepParticipant    WizardStep = "participant"
	StepCourse         WizardStep = "course"
	StepPayment        WizardStep = "payment"
	StepConfirmation   WizardStep = "confirmation"
	StepNoParticipants WizardStep = "no_participants"
)

var wizardSteps = []struct {
	step  WizardStep
	label string
}{
	{StepParticipant, "Participante"},
	{StepCourse, "Curso"},
	{StepPayment, "Pago"},
	{StepConfirmation, "Confirmación"},
}

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentTransfer: "Transferencia",
	models.PaymentCash:     "Efectivo",
	models.PaymentCard:     "Tarjeta",
}

const (
	wizardLoadFailed    = "Error al cargar datos"
	enrollmentFailed    = "Error al inscribir"
	enrollmentSubmitted = "¡Inscripción realizada! El administrador verificará tu pago."
	noCategoryLabel     = "Sin categoría"
	fullGroupLabel      = "Lleno"
	maxReferenceLength  = 120
	maxNotesLength      = 500
)

type enrollmentClient interface {
	ListMyParticipants(ctx context.Context) ([]models.Participant, error)
	ListOpenCourses(ctx context.Context) ([]models.Course, error)
	ListPublicGroups(ctx context.Context, courseID int) ([]models.CourseGroup, error)
	CreateEnrollment(ctx context.Context, req models.EnrollmentRequest) (*models.Enrollment, error)
}

type receiptIssuer interface {
	Issue(ctx context.Context, receipt models.Receipt) (*dto.ReceiptLink, error)
}

// EnrollmentWizard drives the participant, course, payment and confirmation
// steps for one guardian. Remote calls run without holding the lock; the
// group list is tagged with a generation so a late response for a previous
// course never replaces the current one.
type EnrollmentWizard struct {
	client    enrollmentClient
	receipts  receiptIssuer
	audit     auditRecorder
	formatter *format.Formatter
	logger    *zap.Logger
	owner     string

	mu            sync.Mutex
	step          WizardStep
	loading       bool
	loadingGroups bool
	submitting    bool
	participants  []models.Participant
	courses       []models.Course
	groups        []models.CourseGroup
	participantID int
	courseID      int
	groupID       int
	payment       models.PaymentMethod
	reference     string
	notes         string
	groupGen      uint64
	success       string
	errMessage    string
	receipt       *dto.ReceiptLink
}

// NewEnrollmentWizard creates an unmounted wizard for owner.
func NewEnrollmentWizard(client enrollmentClient, receipts receiptIssuer, audit auditRecorder, formatter *format.Formatter, owner string, logger *zap.Logger) *EnrollmentWizard {
	if formatter == nil {
		formatter = format.New(format.DefaultLocale, format.DefaultCurrency)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentWizard{
		client:    client,
		receipts:  receipts,
		audit:     audit,
		formatter: formatter,
		logger:    logger,
		owner:     owner,
		step:      StepParticipant,
		payment:   models.PaymentTransfer,
		loading:   true,
	}
}

// Mount loads participants and open courses concurrently and applies the
// deep link. A deep-linked course is pre-selected only when it is open; its
// group only when it belongs to that course and still has room. Anything
// else is ignored and left to manual selection. The step stays on participant.
func (w *EnrollmentWizard) Mount(ctx context.Context, link dto.EnrollmentDeepLink) error {
	var (
		participants []models.Participant
		courses      []models.Course
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = w.client.ListMyParticipants(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		courses, err = w.client.ListOpenCourses(gctx)
		return err
	})
	err := g.Wait()

	w.mu.Lock()
	w.loading = false
	if err != nil {
		w.errMessage = wizardLoadFailed
		w.mu.Unlock()
		w.logger.Warn("enrollment wizard load failed", zap.Error(err))
		return appErrors.Clone(appErrors.FromError(err), wizardLoadFailed)
	}
	w.participants = nonNil(participants)
	w.courses = nonNil(courses)
	if len(w.participants) == 0 {
		w.step = StepNoParticipants
		w.mu.Unlock()
		return nil
	}
	if link.CourseID <= 0 || !w.hasCourse(link.CourseID) {
		w.mu.Unlock()
		return nil
	}
	gen := w.beginCourse(link.CourseID)
	w.mu.Unlock()

	groups, groupErr := w.client.ListPublicGroups(ctx, link.CourseID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.applyGroups(gen, groups, groupErr) {
		return nil
	}
	if link.GroupID > 0 {
		if group, ok := w.findGroup(link.GroupID); ok && group.Selectable() {
			w.groupID = link.GroupID
		} else {
			w.logger.Debug("deep-linked group ignored", zap.Int("course_id", link.CourseID), zap.Int("group_id", link.GroupID))
		}
	}
	return nil
}

// SelectParticipant picks a participant from the caller's own list.
func (w *EnrollmentWizard) SelectParticipant(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepParticipant {
		return appErrors.ErrInvalidStep
	}
	if _, ok := w.findParticipant(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "participant not found")
	}
	w.participantID = id
	w.errMessage = ""
	return nil
}

// SelectCourse picks an open course, clears the group selection and loads
// that course's groups. A failed group load leaves an empty list.
func (w *EnrollmentWizard) SelectCourse(ctx context.Context, id int) error {
	w.mu.Lock()
	if w.step != StepCourse {
		w.mu.Unlock()
		return appErrors.ErrInvalidStep
	}
	if !w.hasCourse(id) {
		w.mu.Unlock()
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	gen := w.beginCourse(id)
	w.mu.Unlock()

	groups, err := w.client.ListPublicGroups(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.applyGroups(gen, groups, err)
	return nil
}

// SelectGroup picks a group of the selected course. Unknown and full groups
// are rejected without changing any state.
func (w *EnrollmentWizard) SelectGroup(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepCourse {
		return appErrors.ErrInvalidStep
	}
	if w.loadingGroups {
		return appErrors.Clone(appErrors.ErrRequestInFlight, "groups are still loading")
	}
	group, ok := w.findGroup(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	if !group.Selectable() {
		return appErrors.ErrGroupFull
	}
	w.groupID = id
	return nil
}

// Continue advances from participant to course and from course to payment.
func (w *EnrollmentWizard) Continue() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.canContinue() {
		if w.step == StepParticipant || w.step == StepCourse {
			return appErrors.ErrSelectionIncomplete
		}
		return appErrors.ErrInvalidStep
	}
	switch w.step {
	case StepParticipant:
		w.step = StepCourse
	case StepCourse:
		w.step = StepPayment
	}
	return nil
}

// Back returns from course to participant and from payment to course.
func (w *EnrollmentWizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepCourse:
		w.step = StepParticipant
	case StepPayment:
		if w.submitting {
			return appErrors.ErrRequestInFlight
		}
		w.step = StepCourse
	default:
		return appErrors.ErrInvalidStep
	}
	return nil
}

// SetPayment records the payment method, reference and notes.
func (w *EnrollmentWizard) SetPayment(req dto.PaymentRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepPayment {
		return appErrors.ErrInvalidStep
	}
	method := req.Method
	if method == "" {
		method = models.PaymentTransfer
	}
	if !method.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported payment method")
	}
	reference := strings.TrimSpace(req.Reference)
	notes := strings.TrimSpace(req.Notes)
	if len([]rune(reference)) > maxReferenceLength || len([]rune(notes)) > maxNotesLength {
		return appErrors.Clone(appErrors.ErrValidation, "payment reference or notes too long")
	}
	w.payment, w.reference, w.notes = method, reference, notes
	return nil
}

// Submit creates the enrollment. The three selections are checked first so an
// incomplete draft never reaches the club API.
func (w *EnrollmentWizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.participantID == 0 || w.courseID == 0 || w.groupID == 0 {
		w.errMessage = appErrors.ErrSelectionIncomplete.Message
		w.mu.Unlock()
		return appErrors.ErrSelectionIncomplete
	}
	if w.step != StepPayment {
		w.mu.Unlock()
		return appErrors.ErrInvalidStep
	}
	if w.submitting {
		w.mu.Unlock()
		return appErrors.ErrRequestInFlight
	}
	w.submitting = true
	w.errMessage = ""
	req := models.EnrollmentRequest{
		CourseID:        w.courseID,
		GroupID:         w.groupID,
		ParticipantID:   w.participantID,
		GenerateInvoice: true,
		Notes:           w.notes,
	}
	w.mu.Unlock()

	enrollment, err := w.client.CreateEnrollment(ctx, req)

	w.mu.Lock()
	w.submitting = false
	if err != nil {
		shown := displayError(err, enrollmentFailed)
		w.errMessage = shown.Message
		w.mu.Unlock()
		w.logger.Info("enrollment rejected", zap.Int("course_id", req.CourseID), zap.Int("group_id", req.GroupID), zap.Error(err))
		return shown
	}
	w.step = StepConfirmation
	w.success = enrollmentSubmitted
	receipt := models.Receipt{
		OwnerID:          w.owner,
		Summary:          w.summary(),
		PaymentMethod:    w.payment,
		PaymentReference: w.reference,
		Notes:            w.notes,
		CreatedAt:        time.Now().UTC(),
	}
	if enrollment != nil {
		receipt.EnrollmentID = enrollment.ID
	}
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			Action:     models.AuditActionEnrollment,
			Resource:   "enrollment",
			ResourceID: strconv.Itoa(receipt.EnrollmentID),
			Values:     req,
		})
	}

	if w.receipts == nil {
		return nil
	}
	link, err := w.receipts.Issue(ctx, receipt)
	if err != nil {
		w.logger.Warn("receipt not issued", zap.Error(err))
		return nil
	}
	w.mu.Lock()
	w.receipt = link
	w.mu.Unlock()
	return nil
}

// Step reports the current step.
func (w *EnrollmentWizard) Step() WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// View renders the wizard with formatted strings.
func (w *EnrollmentWizard) View() dto.WizardView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := dto.WizardView{
		Step:          string(w.step),
		Loading:       w.loading,
		LoadingGroups: w.loadingGroups,
		Submitting:    w.submitting,
		Reference:     w.reference,
		Notes:         w.notes,
		CanContinue:   w.canContinue(),
		Success:       w.success,
		Error:         w.errMessage,
		Receipt:       w.receipt,
	}
	if w.step == StepNoParticipants {
		view.Steps = []dto.StepIndicator{}
		view.Participants = []dto.ParticipantOption{}
		view.Courses = []dto.CourseOption{}
		view.Groups = []dto.GroupOption{}
		view.PaymentMethods = []dto.PaymentOption{}
		return view
	}

	view.Steps = make([]dto.StepIndicator, 0, len(wizardSteps))
	for _, s := range wizardSteps {
		view.Steps = append(view.Steps, dto.StepIndicator{
			Step:   string(s.step),
			Label:  s.label,
			Active: s.step == w.step,
			Done:   w.stepDone(s.step),
		})
	}

	view.Participants = make([]dto.ParticipantOption, 0, len(w.participants))
	for _, p := range w.participants {
		category := p.CategoryName()
		if category == "" {
			category = noCategoryLabel
		}
		view.Participants = append(view.Participants, dto.ParticipantOption{
			ID: p.ID, Name: p.FullName(), Category: category, Selected: p.ID == w.participantID,
		})
	}

	view.Courses = make([]dto.CourseOption, 0, len(w.courses))
	for _, c := range w.courses {
		view.Courses = append(view.Courses, dto.CourseOption{
			ID:        c.ID,
			Name:      c.Name,
			StartDate: w.formatter.Date(c.StartDate),
			EndDate:   w.formatter.Date(c.EndDate),
			Price:     w.formatter.Currency(float64(c.Price)),
			Selected:  c.ID == w.courseID,
		})
	}

	view.Groups = make([]dto.GroupOption, 0, len(w.groups))
	for _, g := range w.groups {
		label := fullGroupLabel
		if g.Selectable() {
			label = strconv.Itoa(g.RemainingSlots()) + " cupos"
		}
		view.Groups = append(view.Groups, dto.GroupOption{
			ID:         g.ID,
			Name:       g.Name,
			Schedule:   w.schedule(g),
			Days:       w.formatter.Days(g.DaysOfWeek),
			Capacity:   g.Capacity,
			Occupancy:  g.Occupancy,
			Remaining:  g.RemainingSlots(),
			Label:      label,
			Selectable: g.Selectable(),
			Selected:   g.ID == w.groupID,
		})
	}

	view.PaymentMethods = make([]dto.PaymentOption, 0, len(models.PaymentMethods))
	for _, m := range models.PaymentMethods {
		view.PaymentMethods = append(view.PaymentMethods, dto.PaymentOption{Value: m, Label: paymentLabels[m], Selected: m == w.payment})
	}

	if w.step == StepPayment || w.step == StepConfirmation {
		summary := w.summary()
		view.Summary = &summary
	}
	return view
}

func (w *EnrollmentWizard) canContinue() bool {
	switch w.step {
	case StepParticipant:
		return w.participantID != 0
	case StepCourse:
		return w.groupID != 0
	default:
		return false
	}
}

func (w *EnrollmentWizard) stepDone(step WizardStep) bool {
	switch step {
	case StepParticipant:
		return w.participantID != 0
	case StepCourse:
		return w.groupID != 0
	case StepPayment:
		return w.step == StepConfirmation
	default:
		return false
	}
}

// beginCourse must be called with the lock held.
func (w *EnrollmentWizard) beginCourse(id int) uint64 {
	w.courseID = id
	w.groupID = 0
	w.groups = []models.CourseGroup{}
	w.groupGen++
	w.loadingGroups = true
	return w.groupGen
}

// applyGroups must be called with the lock held. It reports whether the
// response was for the current course.
func (w *EnrollmentWizard) applyGroups(gen uint64, groups []models.CourseGroup, err error) bool {
	if gen != w.groupGen {
		w.logger.Debug("discarding groups for superseded course", zap.Uint64("generation", gen))
		return false
	}
	w.loadingGroups = false
	if err != nil {
		w.groups = []models.CourseGroup{}
		w.errMessage = wizardLoadFailed
		w.logger.Warn("group load failed", zap.Int("course_id", w.courseID), zap.Error(err))
		return true
	}
	if w.errMessage == wizardLoadFailed {
		w.errMessage = ""
	}
	w.groups = nonNil(groups)
	return true
}

func (w *EnrollmentWizard) summary() models.EnrollmentSummary {
	var summary models.EnrollmentSummary
	if p, ok := w.findParticipant(w.participantID); ok {
		summary.Participant = p.FullName()
	}
	price := 0.0
	if c, ok := w.findCourse(w.courseID); ok {
		summary.Course = c.Name
		price = float64(c.Price)
	}
	summary.Price = w.formatter.Currency(price)
	if g, ok := w.findGroup(w.groupID); ok {
		summary.Group = g.Name
		summary.Schedule = w.schedule(g)
		summary.Days = w.formatter.Days(g.DaysOfWeek)
	}
	return summary
}

func (w *EnrollmentWizard) schedule(g models.CourseGroup) string {
	start, end := format.Time12(g.StartTime), format.Time12(g.EndTime)
	switch {
	case start == "" && end == "":
		return w.formatter.Undefined()
	case end == "":
		return start
	case start == "":
		return end
	default:
		return start + " - " + end
	}
}

func (w *EnrollmentWizard) findParticipant(id int) (models.Participant, bool) {
	for _, p := range w.participants {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

func (w *EnrollmentWizard) hasCourse(id int) bool {
	_, ok := w.findCourse(id)
	return ok
}

func (w *EnrollmentWizard) findCourse(id int) (models.Course, bool) {
	for _, c := range w.courses {
		if c.ID == id {
			return c, true
		}
	}
	return models.Course{}, false
}

func (w *EnrollmentWizard) findGroup(id int) (models.CourseGroup, bool) {
	for _, g := range w.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.CourseGroup{}, false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
