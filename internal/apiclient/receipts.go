package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

const receiptsPath = "/api/recibo"

// ListReceipts busca uma página de recibos. Os parâmetros omitidos no
// descritor (busca vazia, fazenda 0) não são enviados.
func (c *Client) ListReceipts(ctx context.Context, d utils.RequestDescriptor) (*models.ReceiptPage, error) {
	var page models.ReceiptPage
	if err := c.do(ctx, http.MethodGet, receiptsPath, d.Params(), nil, &page); err != nil {
		return nil, err
	}
	if page.Data == nil {
		page.Data = []models.Receipt{}
	}
	return &page, nil
}

// GetReceipt busca um recibo pelo id.
func (c *Client) GetReceipt(ctx context.Context, id uint64) (*models.Receipt, error) {
	var r models.Receipt
	if err := c.do(ctx, http.MethodGet, receiptPath(id), nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReceipt cria o recibo e retorna o registro salvo, com id e número
// atribuídos pela API.
func (c *Client) CreateReceipt(ctx context.Context, in models.ReceiptInput) (*models.Receipt, error) {
	in.ID, in.Number = 0, 0
	var saved models.Receipt
	if err := c.do(ctx, http.MethodPost, receiptsPath, nil, in.Payload(""), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateReceipt grava o recibo editado. farmName é o nome atual da fazenda,
// enviado junto com o id dela.
func (c *Client) UpdateReceipt(ctx context.Context, in models.ReceiptInput, farmName string) error {
	return c.do(ctx, http.MethodPut, receiptsPath, nil, in.Payload(farmName), nil)
}

// DeleteReceipt exclui o recibo.
func (c *Client) DeleteReceipt(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, receiptPath(id), nil, nil, nil)
}

func receiptPath(id uint64) string {
	return receiptsPath + "/" + strconv.FormatUint(id, 10)
}
