package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/pkg/jobs"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type requestMetaKey struct{}

// WithRequestMeta stores caller details for audit entries recorded during the request.
func WithRequestMeta(ctx context.Context, meta models.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the caller details stored in ctx.
func RequestMetaFrom(ctx context.Context) models.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(models.RequestMeta)
	return meta
}

// AuditEntry describes one portal action.
type AuditEntry struct {
	Action     string
	Resource   string
	ResourceID string
	Values     interface{}
}

// AuditService records portal actions asynchronously. A nil service records nothing.
type AuditService struct {
	repo    auditRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService wires the repository behind a background queue.
func NewAuditService(repo auditRepository, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{Workers: 2, MaxRetries: 2, Logger: logger})
	return s
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop flushes buffered entries and stops the workers.
func (s *AuditService) Stop() {
	if s == nil {
		return
	}
	s.queue.Stop()
}

// Record queues entry. Failures are logged and never reach the caller.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil {
		return
	}
	meta := RequestMetaFrom(ctx)
	log := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    entry.Action,
		Resource:  entry.Resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if meta.UserID != "" {
		userID := meta.UserID
		log.UserID = &userID
	}
	if entry.ResourceID != "" {
		resourceID := entry.ResourceID
		log.ResourceID = &resourceID
	}
	if entry.Values != nil {
		if body, err := json.Marshal(entry.Values); err == nil {
			log.NewValues = body
		}
	}

	if err := s.queue.Enqueue(jobs.Job{ID: log.ID, Type: entry.Action, Payload: log}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return nil
	}
	return observeDB(s.metrics, "audit_insert", func() error {
		return s.repo.Create(ctx, log)
	})
}
