package models

// Farm é a fazenda: a entidade pagadora dona de um conjunto de recibos.
// Os dados do pagador são usados como padrão ao emitir um recibo.
type Farm struct {
	ID            uint64 `json:"id"`
	Name          string `json:"nome"`
	PayerName     string `json:"pagadorNome"`
	PayerAddress  string `json:"pagadorEndereco"`
	PayerDocument string `json:"pagadorDocumento"`
}

// FarmRef é a referência à fazenda embutida em um recibo.
// A API exige "nome" preenchido mesmo quando só o id importa.
type FarmRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"nome"`
}

// FarmCreate contém os dados validados para criar uma fazenda.
// CopyFromFarmID e ReceiptsDate só são enviados quando CopyReceipts é true.
type FarmCreate struct {
	Name          string
	PayerName     string
	PayerAddress  string
	PayerDocument string

	CopyReceipts   bool
	CopyFromFarmID uint64
	ReceiptsDate   Date
}

// Farm retorna o corpo enviado à API.
func (c FarmCreate) Farm() Farm {
	return Farm{
		Name:          c.Name,
		PayerName:     c.PayerName,
		PayerAddress:  c.PayerAddress,
		PayerDocument: c.PayerDocument,
	}
}

// FarmUpdate contém os dados validados para editar uma fazenda.
type FarmUpdate struct {
	ID            uint64
	Name          string
	PayerName     string
	PayerAddress  string
	PayerDocument string
}

// Farm retorna o corpo enviado à API.
func (u FarmUpdate) Farm() Farm {
	return Farm{
		ID:            u.ID,
		Name:          u.Name,
		PayerName:     u.PayerName,
		PayerAddress:  u.PayerAddress,
		PayerDocument: u.PayerDocument,
	}
}
