package pix_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vidaplan/paycode/internal/domain"
	"github.com/vidaplan/paycode/internal/pix"
)

func validRequest() pix.Request {
	return pix.Request{
		Amount:        decimal.RequireFromString("1234.56"),
		Description:   "Mensalidade plano de saude",
		MerchantKey:   "pix@vidaplan.com.br",
		MerchantName:  "VIDAPLAN SAUDE",
		MerchantCity:  "SAO PAULO",
		TransactionID: "PAY12345",
		PayerEmail:    "maria@example.com",
	}
}

func TestGenerateGoldenPayloads(t *testing.T) {
	payload, err := pix.Generate(validRequest())
	require.NoError(t, err)
	require.Equal(t,
		"00020126410014br.gov.bcb.pix0119pix@vidaplan.com.br52040000530398654071234.565802BR5914VIDAPLAN SAUDE6009SAO PAULO62120508PAY1234563041589",
		payload,
	)

	phone, err := pix.Generate(pix.Request{
		Amount:        decimal.RequireFromString("10.00"),
		MerchantKey:   "+5511999998888",
		MerchantName:  "CLINICA VIDA",
		MerchantCity:  "RIO DE JANEIRO",
		TransactionID: "TX1",
		PayerEmail:    "joao@example.com",
	})
	require.NoError(t, err)
	require.Equal(t,
		"00020126360014br.gov.bcb.pix0114+551199999888852040000530398654"+
			"0510.005802BR5912CLINICA VIDA6014RIO DE JANEIRO62070503TX163040B9D",
		phone,
	)
}

func TestPayloadFraming(t *testing.T) {
	payload, err := pix.Generate(validRequest())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(payload, "000201"))

	// Tag 6304 plus four uppercase hex CRC digits close the payload.
	crcField := payload[len(payload)-8:]
	require.Equal(t, "6304", crcField[:4])
	for _, r := range crcField[4:] {
		require.Contains(t, "0123456789ABCDEF", string(r))
	}
}

func TestNestedTemplateLengths(t *testing.T) {
	payload, err := pix.Generate(validRequest())
	require.NoError(t, err)

	// The merchant account template length covers both encoded sub fields.
	idx := strings.Index(payload, "26")
	require.GreaterOrEqual(t, idx, 0)
	inner := "0014br.gov.bcb.pix" + "0119pix@vidaplan.com.br"
	require.Contains(t, payload, "2641"+inner)
	require.Len(t, inner, 41)
}

func TestDifferentTransactionIDsSameStructure(t *testing.T) {
	first, err := pix.Generate(validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.TransactionID = "PAY99999"
	second, err := pix.Generate(req)
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.Len(t, second, len(first))

	// Everything before the additional data template is identical.
	cut := strings.Index(first, "6212")
	require.GreaterOrEqual(t, cut, 0)
	require.Equal(t, first[:cut], second[:cut])
}

func TestAmountBoundaries(t *testing.T) {
	var invalid *domain.InvalidPaymentRequestError

	req := validRequest()
	req.Amount = decimal.RequireFromString("50000.00")
	payload, err := pix.Generate(req)
	require.NoError(t, err)
	require.Contains(t, payload, "540850000.00")

	req.Amount = decimal.RequireFromString("50000.01")
	_, err = pix.Generate(req)
	require.ErrorAs(t, err, &invalid)

	req.Amount = decimal.Zero
	_, err = pix.Generate(req)
	require.ErrorAs(t, err, &invalid)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pix.Request)
		field  string
	}{
		{"missing key", func(r *pix.Request) { r.MerchantKey = "" }, "merchantKey"},
		{"missing name", func(r *pix.Request) { r.MerchantName = " " }, "merchantName"},
		{"missing city", func(r *pix.Request) { r.MerchantCity = "" }, "merchantCity"},
		{"missing txid", func(r *pix.Request) { r.TransactionID = "" }, "transactionId"},
		{"missing payer contact", func(r *pix.Request) { r.PayerEmail = "" }, "payerEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := pix.Generate(req)
			var invalid *domain.InvalidPaymentRequestError
			require.ErrorAs(t, err, &invalid)
			require.Equal(t, tt.field, invalid.Field)
		})
	}
}
