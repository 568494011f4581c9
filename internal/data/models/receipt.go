package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Receipt é um recibo: documento financeiro datado, com valor, beneficiário e pagador,
// vinculado a uma fazenda. O número é atribuído pela API.
type Receipt struct {
	ID                uint64          `json:"id"`
	Farm              Farm            `json:"fazenda"`
	Number            int             `json:"numero"`
	Date              Date            `json:"data"`
	Value             decimal.Decimal `json:"valor"`
	Historic          string          `json:"historico"`
	RecipientName     string          `json:"beneficiarioNome"`
	RecipientAddress  string          `json:"beneficiarioEndereco"`
	RecipientDocument string          `json:"beneficiarioDocumento"`
	PayerName         string          `json:"pagadorNome"`
	PayerAddress      string          `json:"pagadorEndereco"`
	PayerDocument     string          `json:"pagadorDocumento"`
}

// ReceiptPage é o envelope de paginação devolvido por GET /api/recibo.
type ReceiptPage struct {
	PageNumber   int       `json:"pageNumber"`
	PageSize     int       `json:"pageSize"`
	FirstPage    string    `json:"firstPage"`
	LastPage     string    `json:"lastPage"`
	TotalPages   int       `json:"totalPages"`
	TotalRecords int       `json:"totalRecords"`
	NextPage     *string   `json:"nextPage"`
	PreviousPage *string   `json:"previousPage"`
	Data         []Receipt `json:"data"`
}

// ReceiptInput contém os dados validados de um recibo, vindos do formulário.
// ID e Number são zero na criação.
type ReceiptInput struct {
	ID                uint64
	Number            int
	FarmID            uint64
	Date              Date
	Value             decimal.Decimal
	Historic          string
	RecipientName     string
	RecipientAddress  string
	RecipientDocument string
	PayerName         string
	PayerAddress      string
	PayerDocument     string
	// AlreadyPrint abre o relatório do recibo depois de salvar.
	AlreadyPrint bool
}

// ReceiptPayload é o corpo enviado em POST/PUT /api/recibo.
// O valor vai como número JSON com duas casas ("valor": 10.50).
type ReceiptPayload struct {
	ID                uint64      `json:"id"`
	Farm              FarmRef     `json:"fazenda"`
	Number            int         `json:"numero"`
	Date              Date        `json:"data"`
	Value             json.Number `json:"valor"`
	Historic          string      `json:"historico"`
	RecipientName     string      `json:"beneficiarioNome"`
	RecipientAddress  string      `json:"beneficiarioEndereco"`
	RecipientDocument string      `json:"beneficiarioDocumento"`
	PayerName         string      `json:"pagadorNome"`
	PayerAddress      string      `json:"pagadorEndereco"`
	PayerDocument     string      `json:"pagadorDocumento"`
}

// Payload monta o corpo da requisição. Na criação a API só usa o id da
// fazenda, mas recusa "nome" vazio, por isso o marcador ".".
func (in ReceiptInput) Payload(farmName string) ReceiptPayload {
	if farmName == "" {
		farmName = "."
	}
	return ReceiptPayload{
		ID:                in.ID,
		Farm:              FarmRef{ID: in.FarmID, Name: farmName},
		Number:            in.Number,
		Date:              in.Date,
		Value:             json.Number(in.Value.StringFixed(2)),
		Historic:          in.Historic,
		RecipientName:     in.RecipientName,
		RecipientAddress:  in.RecipientAddress,
		RecipientDocument: in.RecipientDocument,
		PayerName:         in.PayerName,
		PayerAddress:      in.PayerAddress,
		PayerDocument:     in.PayerDocument,
	}
}
