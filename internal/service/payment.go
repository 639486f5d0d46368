// Package service is the engine façade consumed by the billing and
// enrollment services: code generation, gateway registration, and local
// status answers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vidaplan/paycode/internal/boleto"
	"github.com/vidaplan/paycode/internal/config"
	"github.com/vidaplan/paycode/internal/domain"
	"github.com/vidaplan/paycode/internal/gateway"
	"github.com/vidaplan/paycode/internal/pix"
	"github.com/vidaplan/paycode/internal/qrrender"
	"github.com/vidaplan/paycode/internal/registry"
	"github.com/vidaplan/paycode/internal/resilience"
)

// Mercado Pago payment method identifiers.
const (
	methodPix    = "pix"
	methodBoleto = "bolbradesco"
)

// GatewayClient is the settlement gateway boundary.
type GatewayClient interface {
	RegisterPayment(ctx context.Context, req gateway.RegisterRequest) (*gateway.RegisterResponse, error)
	PaymentStatus(ctx context.Context, externalReference string) (domain.PaymentStatus, error)
}

// Store is an optional write-through snapshot of payment records for the
// reconciliation owned by the persistence layer. A nil Store disables it.
type Store interface {
	SaveRecord(ctx context.Context, rec *domain.PaymentRecord) error
	UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error
}

type PaymentService struct {
	cfg      *config.Config
	boleto   *boleto.Generator
	registry *registry.Registry
	gateway  GatewayClient
	renderer qrrender.Renderer
	store    Store

	registerInvoker *resilience.Invoker
	statusInvoker   *resilience.Invoker

	now func() time.Time
}

type Deps struct {
	Cfg             *config.Config
	Boleto          *boleto.Generator
	Registry        *registry.Registry
	Gateway         GatewayClient
	Renderer        qrrender.Renderer
	Store           Store
	RegisterInvoker *resilience.Invoker
	StatusInvoker   *resilience.Invoker
	Now             func() time.Time
}

func New(deps Deps) *PaymentService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Renderer == nil {
		deps.Renderer = qrrender.Disabled{}
	}
	// Lazy expiry on registry reads must reach the snapshot store too, not
	// only the in-memory record.
	if deps.Store != nil {
		store := deps.Store
		deps.Registry.OnExpire(func(id string) {
			if err := store.UpdateStatus(context.Background(), id, domain.StatusOverdue); err != nil {
				slog.Error("persist overdue status", "id", id, "error", err)
			}
		})
	}
	return &PaymentService{
		cfg:             deps.Cfg,
		boleto:          deps.Boleto,
		registry:        deps.Registry,
		gateway:         deps.Gateway,
		renderer:        deps.Renderer,
		store:           deps.Store,
		registerInvoker: deps.RegisterInvoker,
		statusInvoker:   deps.StatusInvoker,
		now:             deps.Now,
	}
}

type BoletoRequest struct {
	Amount        decimal.Decimal
	DueDate       time.Time
	PayerName     string
	PayerDocument string
	PayerEmail    string
	Description   string
	SequenceSeed  string
}

// GenerateBoleto builds the barcode and typeable line locally, stores the
// record as PENDING, then registers it with the gateway. When the gateway
// is unreachable the record and a GatewayUnavailableError are both
// returned: the code is valid and reconciliation happens later.
func (s *PaymentService) GenerateBoleto(ctx context.Context, req BoletoRequest) (*domain.PaymentRecord, error) {
	id := uuid.NewString()

	seed := req.SequenceSeed
	if seed == "" {
		seed = id
	}
	if req.DueDate.IsZero() {
		req.DueDate = s.now().Add(s.cfg.BoletoDueDays)
	}

	code, err := s.boleto.Generate(boleto.Request{
		Amount:        req.Amount,
		DueDate:       req.DueDate,
		PayerName:     req.PayerName,
		PayerDocument: req.PayerDocument,
		SequenceSeed:  seed,
	})
	if err != nil {
		return nil, err
	}

	rec := &domain.PaymentRecord{
		ID:        id,
		Kind:      domain.KindBoleto,
		Amount:    req.Amount,
		Currency:  "BRL",
		Status:    domain.StatusPending,
		Code:      code.Barcode,
		CreatedAt: s.now(),
		Boleto: &domain.BoletoDetails{
			DueDate:      req.DueDate,
			BankCode:     s.cfg.BankCode,
			Agency:       s.cfg.Agency,
			Account:      s.cfg.Account,
			Barcode:      code.Barcode,
			TypeableLine: code.TypeableLine,
		},
	}
	s.persist(ctx, rec)

	slog.Info("boleto generated", "id", id, "barcode", code.Barcode, "due_date", req.DueDate.Format("2006-01-02"))

	return s.register(ctx, rec, gateway.RegisterRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   methodBoleto,
		ExternalReference: id,
		Payer:             gateway.Payer{Email: req.PayerEmail, FirstName: req.PayerName},
	})
}

type PixRequest struct {
	Amount      decimal.Decimal
	Description string
	PayerName   string
	PayerEmail  string
}

// GeneratePix builds the EMV payload locally, renders the QR image when a
// renderer is configured, stores the record as PENDING and registers it
// with the gateway under the same unavailability contract as boletos.
func (s *PaymentService) GeneratePix(ctx context.Context, req PixRequest) (*domain.PaymentRecord, error) {
	id := uuid.NewString()

	emv, err := pix.Generate(pix.Request{
		Amount:        req.Amount,
		Description:   req.Description,
		MerchantKey:   s.cfg.PixKey,
		MerchantName:  s.cfg.MerchantName,
		MerchantCity:  s.cfg.MerchantCity,
		TransactionID: txid(id),
		PayerEmail:    req.PayerEmail,
	})
	if err != nil {
		return nil, err
	}

	// Rendering failure is non-fatal: the EMV string is the instrument.
	qrImage, err := s.renderer.Render(ctx, emv)
	if err != nil {
		slog.Warn("qr render failed", "id", id, "error", err)
		qrImage = ""
	}

	now := s.now()
	rec := &domain.PaymentRecord{
		ID:        id,
		Kind:      domain.KindPix,
		Amount:    req.Amount,
		Currency:  "BRL",
		Status:    domain.StatusPending,
		Code:      emv,
		CreatedAt: now,
		Pix: &domain.PixDetails{
			MerchantKey: s.cfg.PixKey,
			ExpiresAt:   now.Add(s.cfg.PixExpiry),
			EMVString:   emv,
			QRImage:     qrImage,
		},
	}
	s.persist(ctx, rec)

	slog.Info("pix generated", "id", id, "amount", req.Amount.StringFixed(2))

	return s.register(ctx, rec, gateway.RegisterRequest{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		PaymentMethodID:   methodPix,
		ExternalReference: id,
		Payer:             gateway.Payer{Email: req.PayerEmail, FirstName: req.PayerName},
	})
}

// GetStatus answers from the local registry. Reading a pending boleto past
// its due date flips it to OVERDUE.
func (s *PaymentService) GetStatus(ctx context.Context, id string) (*domain.PaymentRecord, error) {
	return s.registry.Get(id)
}

// CheckStatus forces a gateway poll. When the breaker is open or retries
// are exhausted, the last known local status is returned unchanged.
func (s *PaymentService) CheckStatus(ctx context.Context, id string) (*domain.PaymentRecord, error) {
	rec, err := s.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return rec, nil
	}

	var polled domain.PaymentStatus
	err = s.statusInvoker.Do(ctx, func(ctx context.Context) error {
		var opErr error
		polled, opErr = s.gateway.PaymentStatus(ctx, id)
		return opErr
	})
	if err != nil {
		slog.Warn("status poll failed, answering from local registry", "id", id, "error", err)
		return rec, nil
	}

	if polled != rec.Status {
		s.applyStatus(ctx, id, polled)
	}
	return s.registry.Get(id)
}

// Refund is unsupported for both instrument kinds: boleto reversals are a
// manual bank process and PIX devolution is out of scope upstream.
func (s *PaymentService) Refund(ctx context.Context, id string) error {
	if _, err := s.registry.Get(id); err != nil {
		return err
	}
	return &domain.UnsupportedOperationError{
		Operation:    "refund",
		InstrumentID: id,
		Reason:       "refunds require manual bank processing",
	}
}

// SweepOverdue marks pending boletos past their due date. The registry's
// lazy expiry already covers reads; the sweep keeps long-idle records from
// reporting PENDING to the persistence layer.
func (s *PaymentService) SweepOverdue(ctx context.Context) int {
	now := s.now()
	marked := 0
	s.registry.Each(func(rec *domain.PaymentRecord) {
		if !rec.Overdue(now) {
			return
		}
		if err := s.registry.UpdateStatus(rec.ID, domain.StatusOverdue); err != nil {
			return
		}
		marked++
		if s.store != nil {
			if err := s.store.UpdateStatus(ctx, rec.ID, domain.StatusOverdue); err != nil {
				slog.Error("persist overdue status", "id", rec.ID, "error", err)
			}
		}
	})
	if marked > 0 {
		slog.Info("overdue sweep", "marked", marked)
	}
	return marked
}

func (s *PaymentService) register(ctx context.Context, rec *domain.PaymentRecord, req gateway.RegisterRequest) (*domain.PaymentRecord, error) {
	var resp *gateway.RegisterResponse
	err := s.registerInvoker.Do(ctx, func(ctx context.Context) error {
		var opErr error
		resp, opErr = s.gateway.RegisterPayment(ctx, req)
		return opErr
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) || resilience.Transient(err) {
			return rec, &domain.GatewayUnavailableError{
				Operation:    "register-payment",
				InstrumentID: rec.ID,
				Err:          err,
			}
		}
		// The gateway answered and refused the registration outright.
		s.applyStatus(ctx, rec.ID, domain.StatusFailed)
		updated, getErr := s.registry.Get(rec.ID)
		if getErr != nil {
			return rec, err
		}
		return updated, err
	}

	if mapped := gateway.MapVendorStatus(resp.Status); mapped != rec.Status {
		s.applyStatus(ctx, rec.ID, mapped)
		if updated, err := s.registry.Get(rec.ID); err == nil {
			return updated, nil
		}
	}
	return rec, nil
}

func (s *PaymentService) applyStatus(ctx context.Context, id string, status domain.PaymentStatus) {
	if err := s.registry.UpdateStatus(id, status); err != nil {
		slog.Warn("status transition rejected", "id", id, "status", status, "error", err)
		return
	}
	if s.store != nil {
		if err := s.store.UpdateStatus(ctx, id, status); err != nil {
			slog.Error("persist status", "id", id, "status", status, "error", err)
		}
	}
}

func (s *PaymentService) persist(ctx context.Context, rec *domain.PaymentRecord) {
	s.registry.Put(rec)
	if s.store != nil {
		if err := s.store.SaveRecord(ctx, rec); err != nil {
			slog.Error("persist record", "id", rec.ID, "error", err)
		}
	}
}

// txid strips the uuid down to the 25-character reference label the
// additional data template carries.
func txid(id string) string {
	out := make([]byte, 0, 25)
	for i := 0; i < len(id) && len(out) < 25; i++ {
		if id[i] != '-' {
			out = append(out, id[i])
		}
	}
	return string(out)
}
