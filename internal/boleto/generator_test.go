package boleto_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vidaplan/paycode/internal/boleto"
	"github.com/vidaplan/paycode/internal/checksum"
	"github.com/vidaplan/paycode/internal/domain"
)

func newGenerator(t *testing.T) *boleto.Generator {
	t.Helper()
	g, err := boleto.NewGenerator("341", "1", "12345678")
	require.NoError(t, err)
	return g
}

func validRequest() boleto.Request {
	return boleto.Request{
		Amount:        decimal.RequireFromString("1234.56"),
		DueDate:       time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC),
		PayerName:     "Maria Souza",
		PayerDocument: "123.456.789-09",
		SequenceSeed:  "42",
	}
}

func TestNewGeneratorRejectsOverwideBeneficiaryFields(t *testing.T) {
	var invalid *domain.InvalidPaymentRequestError

	// Agency wider than its 4-digit field would push digits into the
	// account positions of the free field, or grow the barcode past 44.
	_, err := boleto.NewGenerator("341", "12345", "12345678")
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "agency", invalid.Field)

	_, err = boleto.NewGenerator("341", "0001", "12345678901")
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "account", invalid.Field)

	_, err = boleto.NewGenerator("341", "-1", "12345678")
	require.ErrorAs(t, err, &invalid)

	// The widest encodable beneficiary still yields exactly 44 digits.
	g, err := boleto.NewGenerator("341", "9999", "9999999999")
	require.NoError(t, err)
	code, err := g.Generate(validRequest())
	require.NoError(t, err)
	require.Len(t, code.Barcode, 44)
}

func TestGenerateGoldenBarcode(t *testing.T) {
	code, err := newGenerator(t).Generate(validRequest())
	require.NoError(t, err)

	require.Equal(t, "34194157000001234560001001234567800000000420", code.Barcode)
	require.Equal(t, "34190.00108 01234.567806 00000.004200 4 15700000123456", code.TypeableLine)
}

func TestBarcodeShape(t *testing.T) {
	code, err := newGenerator(t).Generate(validRequest())
	require.NoError(t, err)

	require.Len(t, code.Barcode, 44)
	for _, r := range code.Barcode {
		require.True(t, r >= '0' && r <= '9', "barcode must be numeric, got %q", r)
	}

	// The general check digit sits at index 4 and verifies the other 43.
	body := code.Barcode[:4] + code.Barcode[5:]
	dv, err := checksum.Mod11CheckDigit(body)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(dv), string(code.Barcode[4]))
}

func TestTypeableLineShape(t *testing.T) {
	code, err := newGenerator(t).Generate(validRequest())
	require.NoError(t, err)

	digits := 0
	for _, r := range code.TypeableLine {
		if r >= '0' && r <= '9' {
			digits++
		} else {
			require.Contains(t, ". ", string(r))
		}
	}
	require.Equal(t, 47, digits)

	groups := strings.Split(code.TypeableLine, " ")
	require.Len(t, groups, 5)
	require.Len(t, groups[3], 1)
	require.Len(t, groups[4], 14)
}

func TestTypeableLineCheckDigitsRoundTrip(t *testing.T) {
	code, err := newGenerator(t).Generate(validRequest())
	require.NoError(t, err)

	groups := strings.Split(strings.ReplaceAll(code.TypeableLine, ".", ""), " ")
	for i := 0; i < 3; i++ {
		body := groups[i][:len(groups[i])-1]
		dv, err := checksum.Mod10CheckDigit(body)
		require.NoError(t, err)
		require.Equal(t, strconv.Itoa(dv), string(groups[i][len(groups[i])-1]), "group %d", i+1)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := newGenerator(t)
	first, err := g.Generate(validRequest())
	require.NoError(t, err)
	second, err := g.Generate(validRequest())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDifferentSeedsShareDateAndAmountFields(t *testing.T) {
	g := newGenerator(t)

	req := validRequest()
	first, err := g.Generate(req)
	require.NoError(t, err)

	req.SequenceSeed = "99"
	second, err := g.Generate(req)
	require.NoError(t, err)

	require.NotEqual(t, first.Barcode, second.Barcode)
	// Due date factor and amount occupy positions 5..18.
	require.Equal(t, first.Barcode[5:19], second.Barcode[5:19])
}

func TestSeedWithoutDigitsDefaultsToOne(t *testing.T) {
	g := newGenerator(t)

	req := validRequest()
	req.SequenceSeed = "no-digits-here"
	code, err := g.Generate(req)
	require.NoError(t, err)
	require.Equal(t, "0000000001", code.Barcode[33:43])
}

func TestAmountBoundaries(t *testing.T) {
	g := newGenerator(t)

	var invalid *domain.InvalidPaymentRequestError

	req := validRequest()
	req.Amount = decimal.Zero
	_, err := g.Generate(req)
	require.ErrorAs(t, err, &invalid)

	req.Amount = decimal.RequireFromString("-10.00")
	_, err = g.Generate(req)
	require.ErrorAs(t, err, &invalid)

	req.Amount = decimal.RequireFromString("99999999.99")
	code, err := g.Generate(req)
	require.NoError(t, err)
	require.Equal(t, "9999999999", code.Barcode[9:19])

	req.Amount = decimal.RequireFromString("100000000.00")
	_, err = g.Generate(req)
	require.ErrorAs(t, err, &invalid)
}

func TestAmountIsTruncatedNotRounded(t *testing.T) {
	g := newGenerator(t)

	req := validRequest()
	req.Amount = decimal.RequireFromString("10.999")
	code, err := g.Generate(req)
	require.NoError(t, err)
	require.Equal(t, "0000001099", code.Barcode[9:19])
}

func TestMissingPayerFields(t *testing.T) {
	g := newGenerator(t)
	var invalid *domain.InvalidPaymentRequestError

	req := validRequest()
	req.PayerName = ""
	_, err := g.Generate(req)
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "payerName", invalid.Field)

	req = validRequest()
	req.PayerDocument = "  "
	_, err = g.Generate(req)
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "payerDocument", invalid.Field)
}

func TestDueDateFactor(t *testing.T) {
	factor, err := boleto.DueDateFactor(time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 0, factor)

	factor, err = boleto.DueDateFactor(time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 8273, factor)

	// Rollover: the four digit field wrapped on 2025-02-22.
	factor, err = boleto.DueDateFactor(time.Date(2025, time.February, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 9999, factor)

	factor, err = boleto.DueDateFactor(time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1000, factor)

	var invalidDate *domain.InvalidDueDateError
	_, err = boleto.DueDateFactor(time.Date(1997, time.October, 6, 0, 0, 0, 0, time.UTC))
	require.ErrorAs(t, err, &invalidDate)
}
