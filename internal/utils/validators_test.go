package utils

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
)

func documentReason(t *testing.T, err error) appErrors.DocumentReason {
	t.Helper()
	var docErr *appErrors.DocumentError
	require.True(t, errors.As(err, &docErr), "esperado *DocumentError, recebido %v", err)
	return docErr.Reason
}

func TestValidateDocument_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		kind  DocumentKind
	}{
		{"cpf com máscara", "111.444.777-35", "11144477735", DocumentCPF},
		{"cpf sem máscara", "11144477735", "11144477735", DocumentCPF},
		{"cpf com espaços", " 111 444 777 35 ", "11144477735", DocumentCPF},
		{"cpf com dígito zero", "529.982.247-25", "52998224725", DocumentCPF},
		{"cnpj com máscara", "11.222.333/0001-81", "11222333000181", DocumentCNPJ},
		{"cnpj sem máscara", "11444777000161", "11444777000161", DocumentCNPJ},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ValidateDocument(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Digits)
			assert.Equal(t, tt.kind, doc.Kind)
			assert.False(t, doc.Absent())
		})
	}
}

func TestValidateDocument_Absent(t *testing.T) {
	for _, input := range []string{"", "   ", "../-", "abc"} {
		doc, err := ValidateDocument(input)
		require.NoError(t, err, "entrada %q", input)
		assert.True(t, doc.Absent())
		assert.Empty(t, doc.Digits)
	}
}

func TestValidateDocument_WrongLength(t *testing.T) {
	for _, input := range []string{"123", "1234567890", "111.444.777-356", "1122233300018", "112223330001811"} {
		_, err := ValidateDocument(input)
		require.Error(t, err, "entrada %q", input)
		assert.Equal(t, appErrors.DocumentWrongLength, documentReason(t, err))
		assert.ErrorIs(t, err, appErrors.ErrInvalidDocument)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
}

func TestValidateDocument_ChecksumMismatch(t *testing.T) {
	for _, input := range []string{"111.444.777-36", "111.444.777-45", "11.222.333/0001-80", "11.222.333/0001-91"} {
		_, err := ValidateDocument(input)
		require.Error(t, err, "entrada %q", input)
		assert.Equal(t, appErrors.DocumentChecksumMismatch, documentReason(t, err))
	}
}

func TestValidateDocument_AllDigitsEqual(t *testing.T) {
	for _, input := range []string{"00000000000", "111.111.111-11", "99999999999", "00000000000000"} {
		_, err := ValidateDocument(input)
		require.Error(t, err, "entrada %q", input)
		assert.Equal(t, appErrors.DocumentAllDigitsEqual, documentReason(t, err))
	}
}

func TestValidateDocument_SuccessReturnsDigitsOfInput(t *testing.T) {
	// Qualquer pontuação em volta de um documento válido resulta nos mesmos dígitos.
	for _, input := range []string{"111.444.777-35", "111-444-777/35", "(111) 444 777 35"} {
		doc, err := ValidateDocument(input)
		require.NoError(t, err)
		assert.Equal(t, CleanDocument(input), doc.Digits)
	}
}

func TestIsValidCPFAndCNPJ(t *testing.T) {
	assert.True(t, IsValidCPF("111.444.777-35"))
	assert.False(t, IsValidCPF("11.222.333/0001-81"))
	assert.False(t, IsValidCPF(""))
	assert.True(t, IsValidCNPJ("11.222.333/0001-81"))
	assert.False(t, IsValidCNPJ("111.444.777-35"))
}

func TestFormatDocument(t *testing.T) {
	assert.Equal(t, "111.444.777-35", FormatDocument("11144477735"))
	assert.Equal(t, "11.222.333/0001-81", FormatDocument("11222333000181"))
	assert.Equal(t, "123", FormatDocument("123"))
}

func TestValidateAmount(t *testing.T) {
	t.Run("zero não é positivo", func(t *testing.T) {
		_, err := ValidateAmount(0)
		var amountErr *appErrors.AmountError
		require.ErrorAs(t, err, &amountErr)
		assert.Equal(t, appErrors.AmountNotPositive, amountErr.Reason)
		assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
	})

	t.Run("negativo", func(t *testing.T) {
		_, err := ValidateAmount(-5)
		var amountErr *appErrors.AmountError
		require.ErrorAs(t, err, &amountErr)
		assert.Equal(t, appErrors.AmountNotPositive, amountErr.Reason)
	})

	t.Run("frações de centavo", func(t *testing.T) {
		for _, v := range []float64{10.005, 0.001, 1.999} {
			_, err := ValidateAmount(v)
			var amountErr *appErrors.AmountError
			require.ErrorAs(t, err, &amountErr, "valor %v", v)
			assert.Equal(t, appErrors.AmountSubCentPrecision, amountErr.Reason)
		}
	})

	t.Run("NaN e infinito", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			var got decimal.Decimal
			var err error
			require.NotPanics(t, func() { got, err = ValidateAmount(v) }, "valor %v", v)
			var amountErr *appErrors.AmountError
			require.ErrorAs(t, err, &amountErr, "valor %v", v)
			assert.Equal(t, appErrors.AmountNotFinite, amountErr.Reason)
			assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
			assert.True(t, got.IsZero())
		}
	})

	t.Run("valores válidos", func(t *testing.T) {
		for v, want := range map[float64]string{10.01: "10.01", 0.1 + 0.2: "0.30", 1500: "1500.00", 0.01: "0.01"} {
			got, err := ValidateAmount(v)
			require.NoError(t, err, "valor %v", v)
			assert.Equal(t, want, got.StringFixed(2))
		}
	})
}

func TestParseAmount(t *testing.T) {
	tests := map[string]string{
		"10.01":         "10.01",
		"10,01":         "10.01",
		"1.234,56":      "1234.56",
		"R$ 1.234,56":   "1234.56",
		"1.234.567,00":  "1234567",
		"  42 ":         "42",
		"R$ 30,50":     "30.5",
	}
	for input, want := range tests {
		got, err := ParseAmount(input)
		require.NoError(t, err, "entrada %q", input)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "entrada %q: esperado %s, recebido %s", input, want, got)
	}

	_, err := ParseAmount("")
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	_, err = ParseAmount("abc")
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	_, err = ParseAmount("0,00")
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
	_, err = ParseAmount("10,005")
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
	// "1.234.567" vira 1234.567: três casas decimais.
	_, err = ParseAmount("1.234.567")
	assert.ErrorIs(t, err, appErrors.ErrInvalidAmount)
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,50", FormatBRL(decimal.RequireFromString("0.5")))
	assert.Equal(t, "R$ 1.234,56", FormatBRL(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(decimal.NewFromInt(1000000)))
	assert.Equal(t, "R$ 100,00", FormatBRL(decimal.NewFromInt(100)))
	assert.Equal(t, "-R$ 12,30", FormatBRL(decimal.RequireFromString("-12.3")))
}

func TestRequireAndOptionalText(t *testing.T) {
	v, err := RequireText("  fazenda   são joão ")
	require.NoError(t, err)
	assert.Equal(t, "FAZENDA SÃO JOÃO", v)

	_, err = RequireText(" \t\n ")
	assert.ErrorIs(t, err, appErrors.ErrMissingRequiredField)

	assert.Equal(t, "", OptionalText("   "))
	assert.Equal(t, "RUA DAS FLORES, 10", OptionalText("rua das flores, 10"))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeInput("  a \t b\n\nc "))
	assert.Equal(t, "abc", SanitizeInput("a\x00b\x07c"))
	assert.Equal(t, "", SanitizeInput(""))
}
