package forms

import (
	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// FarmForm é o formulário de criação de fazenda.
//
// Com "copiar recibos" desmarcado, fazenda de origem e data dos recibos são
// ignoradas. Marcado, as duas passam a ser obrigatórias. Desmarcar de novo
// apaga os erros que já tinham sido apontados nesses dois campos.
type FarmForm struct {
	Name          string
	PayerName     string
	PayerAddress  string
	PayerDocument string

	OriginFarmID uint64
	ReceiptsDate string

	copyReceipts bool
	errors       FieldErrors
}

// NewFarmForm retorna um formulário vazio com a cópia desmarcada.
func NewFarmForm() *FarmForm {
	return &FarmForm{errors: FieldErrors{}}
}

// CopyReceipts indica se a cópia de recibos está marcada.
func (f *FarmForm) CopyReceipts() bool { return f.copyReceipts }

// SetCopyReceipts marca ou desmarca a cópia de recibos de outra fazenda.
func (f *FarmForm) SetCopyReceipts(on bool) {
	f.copyReceipts = on
	if !on {
		delete(f.errors, FieldOriginFarmID)
		delete(f.errors, FieldReceiptsDate)
	}
}

// Errors retorna uma cópia dos erros da última validação.
func (f *FarmForm) Errors() FieldErrors {
	return f.errors.clone()
}

// Validate valida o formulário. Em caso de erro retorna *core.ValidationError
// e guarda as mensagens por campo em Errors().
func (f *FarmForm) Validate() (models.FarmCreate, error) {
	c := newChecker()

	out := models.FarmCreate{
		Name:          c.requireText(FieldName, f.Name),
		PayerName:     c.requireText(FieldPayerName, f.PayerName),
		PayerAddress:  utils.OptionalText(f.PayerAddress),
		PayerDocument: c.document(FieldPayerDocument, f.PayerDocument),
	}

	if f.copyReceipts {
		out.CopyReceipts = true
		if f.OriginFarmID == 0 {
			c.fail(FieldOriginFarmID, MsgSelectFarm, appErrors.ErrMissingRequiredField)
		}
		out.CopyFromFarmID = f.OriginFarmID
		out.ReceiptsDate = c.requireDate(FieldReceiptsDate, f.ReceiptsDate)
	}

	f.errors = c.fields
	if err := c.result("Verifique os dados da fazenda"); err != nil {
		return models.FarmCreate{}, err
	}
	return out, nil
}

// FarmEditForm é o formulário de edição de fazenda. Não tem cópia de recibos.
type FarmEditForm struct {
	ID            uint64
	Name          string
	PayerName     string
	PayerAddress  string
	PayerDocument string

	errors FieldErrors
}

// FarmEditFormFrom preenche o formulário com os dados atuais da fazenda.
func FarmEditFormFrom(farm models.Farm) *FarmEditForm {
	return &FarmEditForm{
		ID:            farm.ID,
		Name:          farm.Name,
		PayerName:     farm.PayerName,
		PayerAddress:  farm.PayerAddress,
		PayerDocument: farm.PayerDocument,
		errors:        FieldErrors{},
	}
}

// Errors retorna uma cópia dos erros da última validação.
func (f *FarmEditForm) Errors() FieldErrors {
	return f.errors.clone()
}

// Validate valida o formulário de edição.
func (f *FarmEditForm) Validate() (models.FarmUpdate, error) {
	if f.ID == 0 {
		return models.FarmUpdate{}, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "fazenda sem id não pode ser editada")
	}
	c := newChecker()

	out := models.FarmUpdate{
		ID:            f.ID,
		Name:          c.requireText(FieldName, f.Name),
		PayerName:     c.requireText(FieldPayerName, f.PayerName),
		PayerAddress:  utils.OptionalText(f.PayerAddress),
		PayerDocument: c.document(FieldPayerDocument, f.PayerDocument),
	}

	f.errors = c.fields
	if err := c.result("Verifique os dados da fazenda"); err != nil {
		return models.FarmUpdate{}, err
	}
	return out, nil
}
