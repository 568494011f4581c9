package forms

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// ReceiptForm é o formulário de recibo, usado na criação e na edição.
// Value é o texto digitado ("10,50", "1.234,56").
type ReceiptForm struct {
	ID     uint64 // 0 na criação
	Number int

	FarmID   uint64
	FarmName string
	Date     string
	Value    string
	Historic string

	RecipientName     string
	RecipientAddress  string
	RecipientDocument string

	PayerName     string
	PayerAddress  string
	PayerDocument string

	AlreadyPrint bool

	errors FieldErrors
}

// NewReceiptForm retorna um formulário de criação com a data de hoje.
func NewReceiptForm(now time.Time) *ReceiptForm {
	return &ReceiptForm{
		Date:   models.DateOf(now).String(),
		errors: FieldErrors{},
	}
}

// ReceiptFormFrom preenche o formulário de edição com um recibo existente.
func ReceiptFormFrom(r models.Receipt) *ReceiptForm {
	return &ReceiptForm{
		ID:                r.ID,
		Number:            r.Number,
		FarmID:            r.Farm.ID,
		FarmName:          r.Farm.Name,
		Date:              r.Date.String(),
		Value:             r.Value.StringFixed(2),
		Historic:          r.Historic,
		RecipientName:     r.RecipientName,
		RecipientAddress:  r.RecipientAddress,
		RecipientDocument: r.RecipientDocument,
		PayerName:         r.PayerName,
		PayerAddress:      r.PayerAddress,
		PayerDocument:     r.PayerDocument,
		errors:            FieldErrors{},
	}
}

// SelectFarm escolhe a fazenda do recibo e copia os dados do pagador dela.
func (f *ReceiptForm) SelectFarm(farm models.Farm) {
	f.FarmID = farm.ID
	f.FarmName = farm.Name
	f.PayerName = farm.PayerName
	f.PayerAddress = farm.PayerAddress
	f.PayerDocument = farm.PayerDocument
	delete(f.errors, FieldFarmID)
}

// Errors retorna uma cópia dos erros da última validação.
func (f *ReceiptForm) Errors() FieldErrors {
	return f.errors.clone()
}

// Validate valida o formulário. Em caso de erro retorna *core.ValidationError.
func (f *ReceiptForm) Validate() (models.ReceiptInput, error) {
	c := newChecker()

	if f.FarmID == 0 {
		c.fail(FieldFarmID, MsgSelectFarm, appErrors.ErrMissingRequiredField)
	}

	out := models.ReceiptInput{
		ID:                f.ID,
		Number:            f.Number,
		FarmID:            f.FarmID,
		Date:              c.requireDate(FieldDate, f.Date),
		Value:             checkValue(c, f.Value),
		Historic:          utils.OptionalText(f.Historic),
		RecipientName:     c.requireText(FieldRecipientName, f.RecipientName),
		RecipientAddress:  utils.OptionalText(f.RecipientAddress),
		RecipientDocument: c.document(FieldRecipientDocument, f.RecipientDocument),
		PayerName:         c.requireText(FieldPayerName, f.PayerName),
		PayerAddress:      utils.OptionalText(f.PayerAddress),
		PayerDocument:     c.document(FieldPayerDocument, f.PayerDocument),
		AlreadyPrint:      f.AlreadyPrint,
	}

	f.errors = c.fields
	if err := c.result("Verifique os dados do recibo"); err != nil {
		return models.ReceiptInput{}, err
	}
	return out, nil
}

// checkValue converte e valida o valor digitado. Vazio conta como zero.
func checkValue(c *checker, raw string) (value decimal.Decimal) {
	if utils.SanitizeInput(raw) == "" {
		c.fail(FieldValue, MsgValueNotPositive, &appErrors.AmountError{Reason: appErrors.AmountNotPositive, Value: "0"})
		return value
	}
	v, err := utils.ParseAmount(raw)
	if err == nil {
		return v
	}

	var amountErr *appErrors.AmountError
	switch {
	case errors.As(err, &amountErr) && amountErr.Reason == appErrors.AmountSubCentPrecision:
		c.fail(FieldValue, MsgValueSubCent, err)
	case errors.As(err, &amountErr):
		c.fail(FieldValue, MsgValueNotPositive, err)
	default:
		c.fail(FieldValue, MsgInvalidValue, err)
	}
	return value
}
