package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vidaplan/paycode/internal/domain"
	"github.com/vidaplan/paycode/internal/service"
)

type boletoRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	DueDate       string          `json:"due_date"`
	PayerName     string          `json:"payer_name"`
	PayerDocument string          `json:"payer_document"`
	PayerEmail    string          `json:"payer_email"`
	Description   string          `json:"description"`
}

type pixRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	PayerName   string          `json:"payer_name"`
	PayerEmail  string          `json:"payer_email"`
}

type paymentResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	Barcode      string `json:"barcode,omitempty"`
	TypeableLine string `json:"typeable_line,omitempty"`
	DueDate      string `json:"due_date,omitempty"`
	EMVString    string `json:"emv_string,omitempty"`
	QRImage      string `json:"qr_image,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

func toResponse(rec *domain.PaymentRecord) paymentResponse {
	resp := paymentResponse{
		ID:        rec.ID,
		Kind:      string(rec.Kind),
		Amount:    rec.Amount.StringFixed(2),
		Currency:  rec.Currency,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Boleto != nil {
		resp.Barcode = rec.Boleto.Barcode
		resp.TypeableLine = rec.Boleto.TypeableLine
		resp.DueDate = rec.Boleto.DueDate.Format("2006-01-02")
	}
	if rec.Pix != nil {
		resp.EMVString = rec.Pix.EMVString
		resp.QRImage = rec.Pix.QRImage
		resp.ExpiresAt = rec.Pix.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) GenerateBoleto(c *gin.Context) {
	var req boletoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Empty due_date falls back to the configured default window.
	var dueDate time.Time
	if req.DueDate != "" {
		var err error
		dueDate, err = time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be YYYY-MM-DD"})
			return
		}
	}

	rec, err := h.payments.GenerateBoleto(c.Request.Context(), service.BoletoRequest{
		Amount:        req.Amount,
		DueDate:       dueDate,
		PayerName:     req.PayerName,
		PayerDocument: req.PayerDocument,
		PayerEmail:    req.PayerEmail,
		Description:   req.Description,
	})
	h.writeGenerated(c, rec, err)
}

func (h *Handler) GeneratePix(c *gin.Context) {
	var req pixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.payments.GeneratePix(c.Request.Context(), service.PixRequest{
		Amount:      req.Amount,
		Description: req.Description,
		PayerName:   req.PayerName,
		PayerEmail:  req.PayerEmail,
	})
	h.writeGenerated(c, rec, err)
}

// writeGenerated maps the generation outcome. A record with a gateway
// unavailability error is still a success from the caller's side: the code
// was generated and stays PENDING for later reconciliation.
func (h *Handler) writeGenerated(c *gin.Context, rec *domain.PaymentRecord, err error) {
	if err != nil {
		var unavailable *domain.GatewayUnavailableError
		if errors.As(err, &unavailable) && rec != nil {
			resp := toResponse(rec)
			resp.Warning = "gateway registration pending: " + unavailable.Error()
			c.JSON(http.StatusAccepted, resp)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(rec))
}

func (h *Handler) GetStatus(c *gin.Context) {
	rec, err := h.payments.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

func (h *Handler) CheckStatus(c *gin.Context) {
	rec, err := h.payments.CheckStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(rec))
}

func (h *Handler) Refund(c *gin.Context) {
	err := h.payments.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refunded"})
}

func writeError(c *gin.Context, err error) {
	var (
		invalidRequest *domain.InvalidPaymentRequestError
		invalidDueDate *domain.InvalidDueDateError
		notFound       *domain.NotFoundError
		unsupported    *domain.UnsupportedOperationError
		unavailable    *domain.GatewayUnavailableError
	)
	switch {
	case errors.As(err, &invalidRequest), errors.As(err, &invalidDueDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &unsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
