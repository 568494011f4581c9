package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

const farmsPath = "/api/fazenda"

// Parâmetros de consulta da cópia de recibos na criação de fazenda.
const (
	ParamCopyFromFarm = "fazendaOrigemId"
	ParamReceiptsDate = "dataRecibos"
)

// ListFarms busca as fazendas, filtrando pelo nome quando search não está vazio.
func (c *Client) ListFarms(ctx context.Context, search string) ([]models.Farm, error) {
	query := url.Values{}
	if s := utils.BuildQuery(search, 1, 0).Search; s != "" {
		query.Set(utils.ParamSearch, s)
	}
	var farms []models.Farm
	if err := c.do(ctx, http.MethodGet, farmsPath, query, nil, &farms); err != nil {
		return nil, err
	}
	if farms == nil {
		farms = []models.Farm{}
	}
	return farms, nil
}

// GetFarm busca uma fazenda pelo id. 404 casa com core.ErrNotFound.
func (c *Client) GetFarm(ctx context.Context, id uint64) (*models.Farm, error) {
	var farm models.Farm
	if err := c.do(ctx, http.MethodGet, farmPath(id), nil, nil, &farm); err != nil {
		return nil, err
	}
	return &farm, nil
}

// CreateFarm cria a fazenda. Com cópia marcada, a API copia os recibos da
// fazenda de origem a partir da data informada.
// Se a API não devolver a fazenda criada, retorna os dados enviados (id 0).
func (c *Client) CreateFarm(ctx context.Context, in models.FarmCreate) (*models.Farm, error) {
	query := url.Values{}
	if in.CopyReceipts {
		query.Set(ParamCopyFromFarm, strconv.FormatUint(in.CopyFromFarmID, 10))
		query.Set(ParamReceiptsDate, in.ReceiptsDate.String())
	}
	body := in.Farm()
	created := body
	if err := c.do(ctx, http.MethodPost, farmsPath, query, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFarm grava os dados editados da fazenda.
func (c *Client) UpdateFarm(ctx context.Context, in models.FarmUpdate) error {
	return c.do(ctx, http.MethodPut, farmsPath, nil, in.Farm(), nil)
}

// DeleteFarm exclui a fazenda.
func (c *Client) DeleteFarm(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, farmPath(id), nil, nil, nil)
}

func farmPath(id uint64) string {
	return farmsPath + "/" + strconv.FormatUint(id, 10)
}
