package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/club-portal/internal/models"
	"github.com/noah-isme/club-portal/internal/service"
	"github.com/noah-isme/club-portal/pkg/response"
)

type receiptRenderer interface {
	Render(ctx context.Context, token string) ([]byte, *models.Receipt, error)
}

// ReceiptHandler serves enrollment receipts behind signed links.
type ReceiptHandler struct {
	receipts receiptRenderer
}

// NewReceiptHandler constructs a receipt handler.
func NewReceiptHandler(receipts receiptRenderer) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Download godoc
// @Summary Download an enrollment receipt
// @Description The token is issued when an enrollment is submitted and expires with the receipt.
// @Tags Receipts
// @Produce application/pdf
// @Param token path string true "Signed receipt token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /receipts/{token} [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	out, receipt, err := h.receipts.Render(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.Header("Content-Disposition", `inline; filename="`+service.ReceiptFilename(receipt)+`"`)
	c.Data(http.StatusOK, "application/pdf", out)
}
