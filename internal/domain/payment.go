package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InstrumentKind string

const (
	KindBoleto InstrumentKind = "boleto"
	KindPix    InstrumentKind = "pix"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusFailed    PaymentStatus = "FAILED"
	StatusRefunded  PaymentStatus = "REFUNDED"
	StatusOverdue   PaymentStatus = "OVERDUE"
)

// Terminal reports whether a status admits no further transitions.
// OVERDUE is deliberately not terminal: a late boleto payment can still
// be confirmed and move to COMPLETED.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// PaymentRecord is the in-memory representation of an issued payment
// instrument. Code is immutable once computed; only Status changes after
// creation.
type PaymentRecord struct {
	ID        string
	Kind      InstrumentKind
	Amount    decimal.Decimal
	Currency  string
	Status    PaymentStatus
	Code      string
	CreatedAt time.Time

	Boleto *BoletoDetails
	Pix    *PixDetails
}

type BoletoDetails struct {
	DueDate      time.Time
	BankCode     string
	Agency       string
	Account      string
	Barcode      string
	TypeableLine string
}

type PixDetails struct {
	MerchantKey string
	ExpiresAt   time.Time
	EMVString   string
	QRImage     string
}

// Overdue reports whether a pending boleto record has passed its due date.
func (r *PaymentRecord) Overdue(now time.Time) bool {
	if r.Kind != KindBoleto || r.Boleto == nil {
		return false
	}
	return r.Status == StatusPending && now.After(r.Boleto.DueDate)
}
