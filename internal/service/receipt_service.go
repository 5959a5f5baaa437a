package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/club-portal/internal/dto"
	"github.com/noah-isme/club-portal/internal/models"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/export"
	"github.com/noah-isme/club-portal/pkg/format"
	"github.com/noah-isme/club-portal/pkg/storage"
)

const receiptKeyPrefix = "receipts:"

// ReceiptService keeps enrollment receipts in the cache and renders them as
// PDF behind signed links.
type ReceiptService struct {
	cache     *CacheService
	signer    *storage.SignedURLSigner
	pdf       *export.PDFExporter
	formatter *format.Formatter
	baseURL   string
	logger    *zap.Logger
}

// NewReceiptService wires the receipt store. baseURL is the public address of
// the receipts route, without the token.
func NewReceiptService(cache *CacheService, signer *storage.SignedURLSigner, pdf *export.PDFExporter, formatter *format.Formatter, baseURL string, logger *zap.Logger) *ReceiptService {
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if formatter == nil {
		formatter = format.New(format.DefaultLocale, format.DefaultCurrency)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptService{cache: cache, signer: signer, pdf: pdf, formatter: formatter, baseURL: baseURL, logger: logger}
}

// Issue stores the receipt for the signer's TTL and returns its download link.
func (s *ReceiptService) Issue(ctx context.Context, receipt models.Receipt) (*dto.ReceiptLink, error) {
	if !s.cache.Enabled() || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "receipts are not configured")
	}
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	token, expiresAt, err := s.signer.Generate(receipt.ID, receipt.OwnerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign receipt")
	}
	if err := s.cache.Set(ctx, receiptKeyPrefix+receipt.ID, receipt, s.signer.TTL()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store receipt")
	}
	s.logger.Debug("receipt issued", zap.String("receipt_id", receipt.ID), zap.Int("enrollment_id", receipt.EnrollmentID))
	return &dto.ReceiptLink{Token: token, URL: s.url(token), ExpiresAt: expiresAt}, nil
}

// Lookup resolves a signed token to the stored receipt.
func (s *ReceiptService) Lookup(ctx context.Context, token string) (*models.Receipt, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
	}
	id, owner, _, err := s.signer.Parse(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt link expired")
	case err != nil:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid receipt link")
	}

	var receipt models.Receipt
	hit, err := s.cache.Get(ctx, receiptKeyPrefix+id, &receipt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
	}
	if receipt.OwnerID != owner {
		return nil, appErrors.ErrForbidden
	}
	return &receipt, nil
}

// Render returns the PDF for a signed token.
func (s *ReceiptService) Render(ctx context.Context, token string) ([]byte, *models.Receipt, error) {
	receipt, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	out, err := s.pdf.Render(s.document(*receipt, token))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return out, receipt, nil
}

// ReceiptFilename is the download name of a receipt.
func ReceiptFilename(receipt *models.Receipt) string {
	if receipt.EnrollmentID > 0 {
		return "inscripcion-" + strconv.Itoa(receipt.EnrollmentID) + ".pdf"
	}
	return "inscripcion-" + receipt.ID + ".pdf"
}

func (s *ReceiptService) document(receipt models.Receipt, token string) export.Document {
	undefined := s.formatter.Undefined()
	orUndefined := func(v string) string {
		if v == "" {
			return undefined
		}
		return v
	}

	schedule := receipt.Summary.Group
	if receipt.Summary.Schedule != "" {
		schedule = fmt.Sprintf("%s (%s)", receipt.Summary.Group, receipt.Summary.Schedule)
	}
	enrollment := []export.Field{
		{Label: "Participante", Value: receipt.Summary.Participant},
		{Label: "Curso", Value: receipt.Summary.Course},
		{Label: "Horario", Value: orUndefined(schedule)},
		{Label: "Días", Value: orUndefined(receipt.Summary.Days)},
		{Label: "Precio", Value: receipt.Summary.Price},
	}
	payment := []export.Field{
		{Label: "Método", Value: orUndefined(paymentLabels[receipt.PaymentMethod])},
		{Label: "Referencia", Value: orUndefined(receipt.PaymentReference)},
	}
	if receipt.Notes != "" {
		payment = append(payment, export.Field{Label: "Observaciones", Value: receipt.Notes})
	}

	subtitle := "Fecha: " + s.formatter.Date(receipt.CreatedAt.Format("2006-01-02"))
	if receipt.EnrollmentID > 0 {
		subtitle = "Inscripción #" + strconv.Itoa(receipt.EnrollmentID) + " · " + subtitle
	}

	return export.Document{
		Title:    "Comprobante de inscripción",
		Subtitle: subtitle,
		Sections: []export.Section{
			{Heading: "Inscripción", Fields: enrollment},
			{Heading: "Pago", Fields: payment},
		},
		Footer: enrollmentSubmitted,
		QRCode: s.url(token),
	}
}

func (s *ReceiptService) url(token string) string {
	return s.baseURL + "/" + token
}
