// Package repository persists write-through snapshots of payment records
// so the reconciliation owned by the persistence layer can pick them up.
// The in-memory registry stays the authoritative hot path.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidaplan/paycode/internal/domain"
)

type PaymentStore struct {
	db *pgxpool.Pool
}

func NewPaymentStore(db *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{db: db}
}

func (s *PaymentStore) SaveRecord(ctx context.Context, rec *domain.PaymentRecord) error {
	var (
		dueDate, bankCode, agency, account, barcode, typeableLine any
		merchantKey, emvString, expiresAt                         any
	)
	if rec.Boleto != nil {
		dueDate = rec.Boleto.DueDate
		bankCode = rec.Boleto.BankCode
		agency = rec.Boleto.Agency
		account = rec.Boleto.Account
		barcode = rec.Boleto.Barcode
		typeableLine = rec.Boleto.TypeableLine
	}
	if rec.Pix != nil {
		merchantKey = rec.Pix.MerchantKey
		emvString = rec.Pix.EMVString
		expiresAt = rec.Pix.ExpiresAt
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO payment_records (
			id, kind, amount, currency, status, code, created_at,
			due_date, bank_code, agency, account, barcode, typeable_line,
			merchant_key, emv_string, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		rec.ID, rec.Kind, rec.Amount, rec.Currency, rec.Status, rec.Code, rec.CreatedAt,
		dueDate, bankCode, agency, account, barcode, typeableLine,
		merchantKey, emvString, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save payment record: %w", err)
	}
	return nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE payment_records SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}
