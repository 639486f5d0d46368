// Package pix builds EMV "BR Code" payloads for PIX instant payments.
package pix

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vidaplan/paycode/internal/domain"
)

// EMV tag numbers in emission order.
const (
	tagPayloadFormat   = "00"
	tagMerchantAccount = "26"
	tagCategoryCode    = "52"
	tagCurrency        = "53"
	tagAmount          = "54"
	tagCountryCode     = "58"
	tagMerchantName    = "59"
	tagMerchantCity    = "60"
	tagAdditionalData  = "62"
	tagCRC             = "63"

	subTagGUI    = "00"
	subTagPixKey = "01"
	subTagTxID   = "05"

	pixGUI           = "br.gov.bcb.pix"
	currencyBRL      = "986"
	countryBR        = "BR"
	defaultMCC       = "0000"
	payloadFormatEMV = "01"
)

// MaxAmount is the PIX transfer ceiling enforced before code generation.
var MaxAmount = decimal.RequireFromString("50000.00")

// Request carries the inputs for one PIX charge.
type Request struct {
	Amount        decimal.Decimal
	Description   string
	MerchantKey   string
	MerchantName  string
	MerchantCity  string
	TransactionID string
	PayerEmail    string
}

// Generate builds the EMV payload for a PIX charge. Two requests with
// identical business inputs but different transaction ids yield different
// payloads with identical tag structure.
func Generate(req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	var p strings.Builder

	if err := writeTLV(&p, tagPayloadFormat, payloadFormatEMV); err != nil {
		return "", err
	}

	// Merchant account info is a nested template; its length is the summed
	// length of the encoded sub fields, computed after they are built.
	account, err := template(
		field{subTagGUI, pixGUI},
		field{subTagPixKey, req.MerchantKey},
	)
	if err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagMerchantAccount, account); err != nil {
		return "", err
	}

	if err := writeTLV(&p, tagCategoryCode, defaultMCC); err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagCurrency, currencyBRL); err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagAmount, req.Amount.StringFixed(2)); err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagCountryCode, countryBR); err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagMerchantName, req.MerchantName); err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagMerchantCity, req.MerchantCity); err != nil {
		return "", err
	}

	additional, err := template(field{subTagTxID, req.TransactionID})
	if err != nil {
		return "", err
	}
	if err := writeTLV(&p, tagAdditionalData, additional); err != nil {
		return "", err
	}

	// The CRC covers the whole payload including its own tag and length.
	p.WriteString(tagCRC + "04")
	payload := p.String()
	return payload + fmt.Sprintf("%04X", crc16([]byte(payload))), nil
}

func validate(req Request) error {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return &domain.InvalidPaymentRequestError{Field: "amount", Reason: "amount must be greater than zero", Amount: req.Amount}
	}
	if req.Amount.GreaterThan(MaxAmount) {
		return &domain.InvalidPaymentRequestError{Field: "amount", Reason: "amount exceeds the PIX ceiling of R$ 50,000.00", Amount: req.Amount}
	}
	if strings.TrimSpace(req.MerchantKey) == "" {
		return &domain.InvalidPaymentRequestError{Field: "merchantKey", Reason: "PIX key is required"}
	}
	if strings.TrimSpace(req.MerchantName) == "" {
		return &domain.InvalidPaymentRequestError{Field: "merchantName", Reason: "merchant name is required"}
	}
	if strings.TrimSpace(req.MerchantCity) == "" {
		return &domain.InvalidPaymentRequestError{Field: "merchantCity", Reason: "merchant city is required"}
	}
	if strings.TrimSpace(req.TransactionID) == "" {
		return &domain.InvalidPaymentRequestError{Field: "transactionId", Reason: "transaction id is required"}
	}
	if strings.TrimSpace(req.PayerEmail) == "" {
		return &domain.InvalidPaymentRequestError{Field: "payerEmail", Reason: "payer contact is required for gateway registration"}
	}
	return nil
}

type field struct {
	tag   string
	value string
}

func template(fields ...field) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		if err := writeTLV(&b, f.tag, f.value); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// writeTLV emits <tag><two digit length><value>. The length is the exact
// byte length of the value, which for nested templates is the full encoded
// sub template.
func writeTLV(b *strings.Builder, tag, value string) error {
	if len(value) > 99 {
		return &domain.InvalidInputError{Input: value, Reason: fmt.Sprintf("EMV tag %s value exceeds 99 bytes", tag)}
	}
	b.WriteString(tag)
	fmt.Fprintf(b, "%02d", len(value))
	b.WriteString(value)
	return nil
}
