package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
)

// --- Validador de CPF/CNPJ ---

// DocumentKind indica qual documento foi informado.
type DocumentKind int

const (
	DocumentAbsent DocumentKind = iota // campo opcional deixado vazio
	DocumentCPF                        // 11 dígitos, pessoa física
	DocumentCNPJ                       // 14 dígitos, pessoa jurídica
)

func (k DocumentKind) String() string {
	switch k {
	case DocumentCPF:
		return "CPF"
	case DocumentCNPJ:
		return "CNPJ"
	}
	return "ausente"
}

// Document é um CPF/CNPJ já validado, apenas dígitos.
type Document struct {
	Digits string
	Kind   DocumentKind
}

// Absent indica que o campo foi deixado vazio.
func (d Document) Absent() bool { return d.Kind == DocumentAbsent }

// Formatted retorna o documento com a máscara usual.
func (d Document) Formatted() string { return FormatDocument(d.Digits) }

var (
	cpfWeights1  = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeights2  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// CleanDocument remove caracteres não numéricos (pontos, traços, barras, espaços).
func CleanDocument(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1 // Descarta o caractere
	}, raw)
}

// ValidateDocument limpa e valida um CPF ou CNPJ.
// Vazio é aceito como ausente, pois o campo é opcional em todos os formulários.
// Em caso de falha retorna *appErrors.DocumentError.
func ValidateDocument(raw string) (Document, error) {
	digits := CleanDocument(raw)

	var kind DocumentKind
	switch len(digits) {
	case 0:
		return Document{Kind: DocumentAbsent}, nil
	case 11:
		kind = DocumentCPF
	case 14:
		kind = DocumentCNPJ
	default:
		return Document{}, &appErrors.DocumentError{Reason: appErrors.DocumentWrongLength, Digits: digits}
	}

	var checksumOK bool
	if kind == DocumentCPF {
		checksumOK = checkDigitsMatch(digits, cpfWeights1, cpfWeights2)
	} else {
		checksumOK = checkDigitsMatch(digits, cnpjWeights1, cnpjWeights2)
	}
	if !checksumOK {
		return Document{}, &appErrors.DocumentError{Reason: appErrors.DocumentChecksumMismatch, Digits: digits}
	}

	// Sequências como "00000000000" passam no cálculo, mas não são documentos válidos.
	if allDigitsEqual(digits) {
		return Document{}, &appErrors.DocumentError{Reason: appErrors.DocumentAllDigitsEqual, Digits: digits}
	}

	return Document{Digits: digits, Kind: kind}, nil
}

// IsValidCPF verifica se uma string de CPF (com ou sem máscara) é válida.
func IsValidCPF(cpf string) bool {
	doc, err := ValidateDocument(cpf)
	return err == nil && doc.Kind == DocumentCPF
}

// IsValidCNPJ verifica se uma string de CNPJ (com ou sem máscara) é válida.
func IsValidCNPJ(cnpj string) bool {
	doc, err := ValidateDocument(cnpj)
	return err == nil && doc.Kind == DocumentCNPJ
}

// checkDigitsMatch calcula os dois dígitos verificadores (módulo 11) e compara
// com os dois últimos dígitos informados. weights1 cobre len(digits)-2 posições
// e weights2 cobre len(digits)-1.
func checkDigitsMatch(digits string, weights1, weights2 []int) bool {
	d1 := mod11CheckDigit(digits, weights1)
	if d1 != int(digits[len(weights1)]-'0') {
		return false
	}
	d2 := mod11CheckDigit(digits, weights2)
	return d2 == int(digits[len(weights2)]-'0')
}

func mod11CheckDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// allDigitsEqual verifica se todos os caracteres em uma string são iguais.
func allDigitsEqual(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// FormatDocument aplica a máscara de CPF (000.000.000-00) ou CNPJ (00.000.000/0000-00).
// Retorna a entrada como está se não tiver 11 ou 14 dígitos.
func FormatDocument(raw string) string {
	d := CleanDocument(raw)
	switch len(d) {
	case 11:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case 14:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	}
	return raw
}

// --- Validador de Valores Monetários ---

// subCentTolerance absorve o erro de representação binária de float64.
var subCentTolerance = decimal.New(1, -9)

// ValidateAmount valida o valor de um recibo recebido como número.
// Em caso de falha retorna *appErrors.AmountError.
func ValidateAmount(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Decimal{}, &appErrors.AmountError{Reason: appErrors.AmountNotFinite, Value: strconv.FormatFloat(value, 'g', -1, 64)}
	}
	return ValidateDecimalAmount(decimal.NewFromFloat(value))
}

// ValidateDecimalAmount aplica as mesmas regras de ValidateAmount sobre um decimal.
// O valor retornado tem exatamente duas casas decimais.
func ValidateDecimalAmount(value decimal.Decimal) (decimal.Decimal, error) {
	if !value.IsPositive() {
		return decimal.Decimal{}, &appErrors.AmountError{Reason: appErrors.AmountNotPositive, Value: value.String()}
	}
	rounded := value.Round(2)
	if rounded.Sub(value).Abs().GreaterThan(subCentTolerance) {
		return decimal.Decimal{}, &appErrors.AmountError{Reason: appErrors.AmountSubCentPrecision, Value: value.String()}
	}
	if !rounded.IsPositive() {
		return decimal.Decimal{}, &appErrors.AmountError{Reason: appErrors.AmountNotPositive, Value: value.String()}
	}
	return rounded, nil
}

var nonAmountChars = regexp.MustCompile(`[^\d.,-]`)

// ParseAmount converte um valor digitado ("10.01", "10,01", "1.234,56", "R$ 1.234,56")
// e o valida com ValidateDecimalAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := nonAmountChars.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return decimal.Decimal{}, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "valor vazio")
	}

	// Se houver vírgula, ela é o separador decimal e os pontos são de milhar.
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if strings.Count(cleaned, ".") > 1 {
		last := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:last], ".", "") + cleaned[last:]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "valor '%s' não é um número", raw)
	}
	return ValidateDecimalAmount(d)
}

// FormatBRL formata um valor como moeda brasileira, ex: "R$ 1.234,56".
func FormatBRL(value decimal.Decimal) string {
	fixed := value.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteRune('.')
		}
		sb.WriteRune(r)
	}

	sign := ""
	if value.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + sb.String() + "," + fracPart
}

// --- Campos de Texto ---

// RequireText normaliza um campo obrigatório (nome da fazenda, pagador, beneficiário).
// Retorna ErrMissingRequiredField se o campo estiver vazio após a limpeza.
func RequireText(raw string) (string, error) {
	v := OptionalText(raw)
	if v == "" {
		return "", appErrors.ErrMissingRequiredField
	}
	return v, nil
}

// OptionalText limpa e converte para maiúsculas um campo opcional.
func OptionalText(raw string) string {
	return ToUpperBR(SanitizeInput(raw))
}

// ToUpperBR converte para maiúsculas com as regras do português ("joão" -> "JOÃO").
// Um Caser não pode ser compartilhado entre goroutines, por isso é criado a cada chamada.
func ToUpperBR(s string) string {
	if s == "" {
		return ""
	}
	return cases.Upper(language.BrazilianPortuguese).String(s)
}

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
// Esta é uma sanitização básica para campos de formulário.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		sb.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(sb.String())
}
