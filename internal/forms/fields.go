// Package forms valida os formulários de fazenda e recibo campo a campo.
// Cada campo é checado por uma função de internal/utils; o formulário só
// compõe os resultados e guarda as mensagens para exibição.
package forms

import (
	"errors"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// Nomes dos campos, usados como chave em FieldErrors.
const (
	FieldName              = "name"
	FieldPayerName         = "payerName"
	FieldPayerAddress      = "payerAddress"
	FieldPayerDocument     = "payerDocument"
	FieldOriginFarmID      = "originFarmId"
	FieldReceiptsDate      = "receiptsDate"
	FieldFarmID            = "farmId"
	FieldDate              = "date"
	FieldValue             = "value"
	FieldHistoric          = "historic"
	FieldRecipientName     = "recipientName"
	FieldRecipientAddress  = "recipientAddress"
	FieldRecipientDocument = "recipientDocument"
)

// Mensagens exibidas ao usuário.
const (
	MsgRequiredName     = "Digite um nome"
	MsgInvalidDocument  = "Digite um CPF ou CNPJ válido ou deixe vazio"
	MsgSelectFarm       = "Selecione uma fazenda"
	MsgRequiredDate     = "Digite uma data"
	MsgInvalidDate      = "Digite uma data válida"
	MsgValueNotPositive = "Digite um valor acima de 0"
	MsgValueSubCent     = "O valor pode ter no máximo duas casas decimais"
	MsgInvalidValue     = "Digite um valor válido"
)

// FieldErrors mapeia o nome do campo para a mensagem de erro.
type FieldErrors map[string]string

func (fe FieldErrors) clone() FieldErrors {
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = v
	}
	return out
}

// checker acumula os erros de uma validação.
type checker struct {
	fields FieldErrors
	causes []error
}

func newChecker() *checker {
	return &checker{fields: FieldErrors{}}
}

func (c *checker) fail(field, message string, cause error) {
	if _, exists := c.fields[field]; exists {
		return // mantém a primeira mensagem do campo
	}
	c.fields[field] = message
	if cause != nil {
		c.causes = append(c.causes, cause)
	}
}

func (c *checker) requireText(field, raw string) string {
	v, err := utils.RequireText(raw)
	if err != nil {
		c.fail(field, MsgRequiredName, err)
	}
	return v
}

// document retorna apenas os dígitos do documento, ou "" se ausente.
func (c *checker) document(field, raw string) string {
	doc, err := utils.ValidateDocument(raw)
	if err != nil {
		c.fail(field, MsgInvalidDocument, err)
		return ""
	}
	return doc.Digits
}

// requireDate valida uma data obrigatória ("2006-01-02" ou "02/01/2006").
func (c *checker) requireDate(field, raw string) models.Date {
	if utils.SanitizeInput(raw) == "" {
		c.fail(field, MsgRequiredDate, appErrors.ErrMissingRequiredField)
		return models.Date{}
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		c.fail(field, MsgInvalidDate, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "%v", err))
		return models.Date{}
	}
	return d
}

// result devolve nil se não houve erro, ou um *ValidationError com todos os campos.
func (c *checker) result(message string) error {
	if len(c.fields) == 0 {
		return nil
	}
	ve := appErrors.NewValidationError(message, c.fields.clone())
	ve.Underlying = errors.Join(c.causes...)
	return ve
}
