package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Erros sentinela pré-definidos para tipos comuns de falha na aplicação.
// Estes podem ser verificados usando errors.Is(err, ErrNotFound).
var (
	// --- Erros Gerais ---
	ErrInternal      = errors.New("erro interno da aplicação")
	ErrConfiguration = errors.New("erro de configuração da aplicação")

	// --- Erros de Banco de Dados / Repositório ---
	ErrDatabase = errors.New("erro na operação com o banco de dados")
	ErrNotFound = errors.New("registro não encontrado")

	// --- Erros de Comunicação com a API ---
	ErrRemote = errors.New("falha na comunicação com a API")

	// --- Erros de Validação e Entrada ---
	ErrValidation           = errors.New("erro de validação nos dados fornecidos")
	ErrInvalidInput         = errors.New("entrada de dados inválida ou mal formatada")
	ErrInvalidDocument      = errors.New("CPF ou CNPJ inválido")
	ErrInvalidAmount        = errors.New("valor monetário inválido")
	ErrMissingRequiredField = errors.New("campo obrigatório não informado")

	// --- Erros Específicos da Aplicação ---
	ErrExport = errors.New("falha ao exportar dados")
)

// DocumentReason identifica por que um CPF/CNPJ foi rejeitado.
type DocumentReason string

const (
	DocumentWrongLength      DocumentReason = "WrongLength"
	DocumentChecksumMismatch DocumentReason = "ChecksumMismatch"
	DocumentAllDigitsEqual   DocumentReason = "AllDigitsEqual"
)

// DocumentError é retornado pelo validador de documentos.
type DocumentError struct {
	Reason DocumentReason
	// Digits é o documento após a limpeza (apenas dígitos).
	Digits string
}

func (e *DocumentError) Error() string {
	switch e.Reason {
	case DocumentWrongLength:
		return fmt.Sprintf("documento deve ter 11 (CPF) ou 14 (CNPJ) dígitos, recebido %d", len(e.Digits))
	case DocumentChecksumMismatch:
		return "dígitos verificadores do documento não conferem"
	case DocumentAllDigitsEqual:
		return "documento com todos os dígitos iguais"
	}
	return ErrInvalidDocument.Error()
}

// Is faz com que errors.Is(err, ErrInvalidDocument) e errors.Is(err, ErrValidation) funcionem.
func (e *DocumentError) Is(target error) bool {
	return target == ErrInvalidDocument || target == ErrValidation
}

// AmountReason identifica por que um valor monetário foi rejeitado.
type AmountReason string

const (
	AmountNotPositive      AmountReason = "NotPositive"
	AmountSubCentPrecision AmountReason = "SubCentPrecision"
	AmountNotFinite        AmountReason = "NotFinite" // NaN ou infinito
)

// AmountError é retornado pelo validador de valores monetários.
type AmountError struct {
	Reason AmountReason
	Value  string
}

func (e *AmountError) Error() string {
	switch e.Reason {
	case AmountNotPositive:
		return fmt.Sprintf("valor %s deve ser maior que zero", e.Value)
	case AmountSubCentPrecision:
		return fmt.Sprintf("valor %s tem mais de duas casas decimais", e.Value)
	case AmountNotFinite:
		return fmt.Sprintf("valor %s não é um número finito", e.Value)
	}
	return ErrInvalidAmount.Error()
}

func (e *AmountError) Is(target error) bool {
	return target == ErrInvalidAmount || target == ErrValidation
}

// ValidationError é um tipo de erro que contém detalhes sobre os campos que falharam na validação.
type ValidationError struct {
	// Message é uma mensagem geral sobre a falha de validação.
	Message string
	// Fields mapeia nomes de campos para suas respectivas mensagens de erro.
	Fields map[string]string
	// Underlying é o erro original que pode ter causado a falha de validação (opcional).
	Underlying error
}

// NewValidationError cria uma nova instância de ValidationError.
func NewValidationError(message string, fields map[string]string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  fields,
	}
}

// Error implementa a interface error.
// Os campos são listados em ordem alfabética para que a mensagem seja estável.
func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Message != "" {
		sb.WriteString(ve.Message)
	} else {
		sb.WriteString("Erro de validação")
	}

	if len(ve.Fields) > 0 {
		names := make([]string, 0, len(ve.Fields))
		for field := range ve.Fields {
			names = append(names, field)
		}
		sort.Strings(names)

		fieldErrors := make([]string, 0, len(names))
		for _, field := range names {
			fieldErrors = append(fieldErrors, fmt.Sprintf("%s: %s", field, ve.Fields[field]))
		}
		sb.WriteString(" (Detalhes: ")
		sb.WriteString(strings.Join(fieldErrors, ", "))
		sb.WriteString(")")
	}
	if ve.Underlying != nil {
		sb.WriteString(fmt.Sprintf(" | Erro original: %v", ve.Underlying))
	}
	return sb.String()
}

// Unwrap retorna o erro encapsulado, permitindo o uso de errors.Is e errors.As com o erro original.
func (ve *ValidationError) Unwrap() error {
	return ve.Underlying
}

// Is permite que `errors.Is(err, ErrValidation)` funcione corretamente,
// mesmo que `err` seja um `*ValidationError` que não tenha ErrValidation como `Underlying`.
func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DatabaseErrorDetail é um tipo de erro para carregar mais informações sobre um erro de banco de dados.
type DatabaseErrorDetail struct {
	// Operation descreve a operação que estava sendo realizada (ex: "gravando auditoria").
	Operation string
	// Err é o erro original retornado pelo driver do banco de dados ou ORM.
	Err error
}

// NewDatabaseErrorDetail cria um novo DatabaseErrorDetail.
func NewDatabaseErrorDetail(operation string, originalErr error) *DatabaseErrorDetail {
	if originalErr == nil {
		originalErr = ErrDatabase
	}
	return &DatabaseErrorDetail{
		Operation: operation,
		Err:       originalErr,
	}
}

func (de *DatabaseErrorDetail) Error() string {
	return fmt.Sprintf("erro de banco de dados durante %s: %v", de.Operation, de.Err)
}

// Unwrap retorna o erro original do banco de dados.
func (de *DatabaseErrorDetail) Unwrap() error {
	return de.Err
}

// Is: um DatabaseErrorDetail é sempre considerado um ErrDatabase.
func (de *DatabaseErrorDetail) Is(target error) bool {
	if target == ErrDatabase {
		return true
	}
	return errors.Is(de.Err, target)
}

// --- Funções Helper ---

// WrapErrorf cria um novo erro que envolve um erro existente com uma mensagem formatada,
// preservando o erro original para verificação com `errors.Is` e `errors.As`.
func WrapErrorf(originalErr error, format string, args ...interface{}) error {
	if originalErr == nil {
		return fmt.Errorf(format, args...)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), originalErr)
}
