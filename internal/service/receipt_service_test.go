package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/internal/repository"
	appErrors "github.com/noah-isme/club-portal/pkg/errors"
	"github.com/noah-isme/club-portal/pkg/storage"
)

func newTestReceiptService(t *testing.T) (*ReceiptService, *storage.SignedURLSigner) {
	t.Helper()
	cache := NewCacheService(repository.NewMemoryCache(), nil, time.Minute, nil)
	signer := storage.NewSignedURLSigner("receipt-secret", time.Hour)
	return NewReceiptService(cache, signer, nil, nil, "http://portal.test/api/v1/receipts", nil), signer
}

func sampleReceipt() models.Receipt {
	return models.Receipt{
		OwnerID:      "user-1",
		EnrollmentID: 555,
		Summary: models.EnrollmentSummary{
			Participant: "Ana Pérez",
			Course:      "Natación",
			Group:       "Tarde",
			Schedule:    "3:00 PM - 5:30 PM",
			Days:        "Mar, Jue",
			Price:       "50,00\u00a0US$",
		},
		PaymentMethod:    models.PaymentTransfer,
		PaymentReference: "TRX-9",
		CreatedAt:        time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC),
	}
}

func TestReceiptServiceIssueAndRender(t *testing.T) {
	svc, _ := newTestReceiptService(t)
	ctx := context.Background()

	link, err := svc.Issue(ctx, sampleReceipt())
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.True(t, strings.HasPrefix(link.URL, "http://portal.test/api/v1/receipts/"))
	assert.True(t, strings.HasSuffix(link.URL, link.Token))
	assert.WithinDuration(t, time.Now().Add(time.Hour), link.ExpiresAt, 5*time.Second)

	out, receipt, err := svc.Render(ctx, link.Token)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "Ana Pérez", receipt.Summary.Participant)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "inscripcion-555.pdf", ReceiptFilename(receipt))
}

func TestReceiptServiceRejectsBadTokens(t *testing.T) {
	svc, signer := newTestReceiptService(t)
	ctx := context.Background()
	link, err := svc.Issue(ctx, sampleReceipt())
	require.NoError(t, err)

	_, err = svc.Lookup(ctx, link.Token+"00")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.Lookup(ctx, "garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	receipt, err := svc.Lookup(ctx, link.Token)
	require.NoError(t, err)
	foreign, _, err := signer.Generate(receipt.ID, "user-2")
	require.NoError(t, err)
	_, err = svc.Lookup(ctx, foreign)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	unknown, _, err := signer.Generate("missing", "user-1")
	require.NoError(t, err)
	_, err = svc.Lookup(ctx, unknown)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReceiptServiceWithoutCache(t *testing.T) {
	svc := NewReceiptService(NewCacheService(nil, nil, 0, nil), storage.NewSignedURLSigner("s", time.Hour), nil, nil, "", nil)
	_, err := svc.Issue(context.Background(), sampleReceipt())
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
