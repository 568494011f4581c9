package apiclient

import (
	"net/url"
	"strconv"
)

// Relatórios são renderizados pelo servidor; o cliente só monta a URL
// que o usuário abre no navegador.

// ReceiptReportURL é o relatório de um único recibo.
func (c *Client) ReceiptReportURL(receiptID uint64) string {
	return c.endpoint("/api/relatoriorecibo/unico", url.Values{"id": {strconv.FormatUint(receiptID, 10)}})
}

// FarmReceiptsReportURL imprime todos os recibos de uma fazenda (0 = todas).
func (c *Client) FarmReceiptsReportURL(farmID uint64) string {
	return c.endpoint("/api/relatoriorecibo/fazenda", url.Values{"FazendaId": {strconv.FormatUint(farmID, 10)}})
}

// ListingReportURL é a listagem de recibos de uma fazenda (0 = todas).
func (c *Client) ListingReportURL(farmID uint64) string {
	return c.endpoint("/api/relatoriolistagem", url.Values{"FazendaId": {strconv.FormatUint(farmID, 10)}})
}
