// Package boleto builds FEBRABAN bank slip barcodes and typeable lines.
package boleto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidaplan/paycode/internal/checksum"
	"github.com/vidaplan/paycode/internal/domain"
)

const currencyCode = "9" // BRL

// febrabanEpoch is the fixed reference date for due date factors.
var febrabanEpoch = time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC)

// MaxAmount is the boleto amount ceiling: ten centavo digits.
var MaxAmount = decimal.RequireFromString("99999999.99")

// Request carries the inputs for one boleto emission.
type Request struct {
	Amount        decimal.Decimal
	DueDate       time.Time
	PayerName     string
	PayerDocument string
	SequenceSeed  string
}

// Code is the machine-readable output: the 44-digit barcode and the
// 47-digit grouped typeable line derived from it.
type Code struct {
	Barcode      string
	TypeableLine string
}

// Generator encodes boletos for a fixed beneficiary account. Generate is
// pure: identical inputs produce identical output and no shared state is
// touched, so a single Generator is safe for concurrent use.
type Generator struct {
	bankCode string
	agency   string
	account  string
}

func NewGenerator(bankCode, agency, account string) (*Generator, error) {
	if len(bankCode) != 3 || !numeric(bankCode) {
		return nil, &domain.InvalidPaymentRequestError{Field: "bankCode", Reason: "bank code must be 3 digits"}
	}
	agencyNum, err := strconv.Atoi(agency)
	if err != nil || agencyNum < 0 || agencyNum > 9999 {
		return nil, &domain.InvalidPaymentRequestError{Field: "agency", Reason: "agency must be a number of up to 4 digits"}
	}
	accountNum, err := strconv.ParseInt(account, 10, 64)
	if err != nil || accountNum < 0 || accountNum > 9999999999 {
		return nil, &domain.InvalidPaymentRequestError{Field: "account", Reason: "account must be a number of up to 10 digits"}
	}
	return &Generator{
		bankCode: bankCode,
		agency:   fmt.Sprintf("%04d", agencyNum),
		account:  fmt.Sprintf("%010d", accountNum),
	}, nil
}

func (g *Generator) Generate(req Request) (*Code, error) {
	if err := g.validate(req); err != nil {
		return nil, err
	}

	factor, err := DueDateFactor(req.DueDate)
	if err != nil {
		return nil, err
	}

	// Amount in centavos, truncated, ten digits.
	cents := req.Amount.Shift(2).Truncate(0).IntPart()

	body := g.bankCode + currencyCode +
		fmt.Sprintf("%04d", factor) +
		fmt.Sprintf("%010d", cents) +
		g.freeField(req.SequenceSeed)

	dv, err := checksum.Mod11CheckDigit(body)
	if err != nil {
		return nil, err
	}

	// General check digit lands at index 4, after bank code and currency.
	barcode := body[:4] + strconv.Itoa(dv) + body[4:]

	line, err := typeableLine(barcode)
	if err != nil {
		return nil, err
	}

	return &Code{Barcode: barcode, TypeableLine: line}, nil
}

func (g *Generator) validate(req Request) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return &domain.InvalidPaymentRequestError{Field: "amount", Reason: "amount must be greater than zero", Amount: req.Amount}
	}
	if req.Amount.GreaterThan(MaxAmount) {
		return &domain.InvalidPaymentRequestError{Field: "amount", Reason: "amount exceeds boleto ceiling", Amount: req.Amount}
	}
	if strings.TrimSpace(req.PayerName) == "" {
		return &domain.InvalidPaymentRequestError{Field: "payerName", Reason: "payer name is required"}
	}
	if strings.TrimSpace(req.PayerDocument) == "" {
		return &domain.InvalidPaymentRequestError{Field: "payerDocument", Reason: "payer document (CPF/CNPJ) is required"}
	}
	return nil
}

// DueDateFactor is the day count from the FEBRABAN epoch (1997-10-07) to
// the due date. Dates before the epoch cannot be encoded. The four digit
// field overflowed on 2025-02-22; per the FEBRABAN rollover rule the count
// restarts at 1000 from that date on.
func DueDateFactor(dueDate time.Time) (int, error) {
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	days := int(due.Sub(febrabanEpoch).Hours() / 24)
	if days < 0 {
		return 0, &domain.InvalidDueDateError{DueDate: dueDate, Reason: "due date precedes the FEBRABAN epoch"}
	}
	if days > 9999 {
		days = (days-1000)%9000 + 1000
	}
	return days, nil
}

// freeField is the 25-digit bank specific block: agency (4), account (10),
// a sequence number taken from the numeric portion of the seed (10), and
// zero padding to fill the field.
func (g *Generator) freeField(seed string) string {
	var digits strings.Builder
	for _, r := range seed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
		if digits.Len() == 10 {
			break
		}
	}
	seq := digits.String()
	if seq == "" {
		seq = "1"
	}
	n, _ := strconv.ParseInt(seq, 10, 64)

	field := g.agency + g.account + fmt.Sprintf("%010d", n)
	for len(field) < 25 {
		field += "0"
	}
	return field
}

// typeableLine regroups the barcode into the five-field printable format:
// three free-field derived groups with their own mod-10 digits, the
// isolated general check digit, and the due date factor plus amount block.
func typeableLine(barcode string) (string, error) {
	field1 := barcode[0:4] + barcode[19:24]
	field2 := barcode[24:34]
	field3 := barcode[34:44]

	dv1, err := checksum.Mod10CheckDigit(field1)
	if err != nil {
		return "", err
	}
	dv2, err := checksum.Mod10CheckDigit(field2)
	if err != nil {
		return "", err
	}
	dv3, err := checksum.Mod10CheckDigit(field3)
	if err != nil {
		return "", err
	}

	field1 += strconv.Itoa(dv1)
	field2 += strconv.Itoa(dv2)
	field3 += strconv.Itoa(dv3)

	return fmt.Sprintf("%s.%s %s.%s %s.%s %c %s",
		field1[:5], field1[5:],
		field2[:5], field2[5:],
		field3[:5], field3[5:],
		barcode[4],
		barcode[5:19],
	), nil
}

func numeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
