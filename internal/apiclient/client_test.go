package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient/apitest"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

type ClientSuite struct {
	suite.Suite
	api    *apitest.FakeAPI
	client *apiclient.Client
	ctx    context.Context
}

func (s *ClientSuite) SetupTest() {
	s.api = apitest.New()
	client, err := apiclient.New(s.api.URL()+"/", 5*time.Second)
	s.Require().NoError(err)
	s.client = client
	s.ctx = context.Background()
}

func (s *ClientSuite) TearDownTest() {
	s.api.Close()
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) addReceipts(farmID uint64, n int, recipient string) {
	for i := 0; i < n; i++ {
		s.api.AddReceipt(farmID, models.Receipt{
			Date:          models.NewDate(2024, time.January, 1+i%28),
			Value:         decimal.NewFromInt(int64(10 + i)),
			RecipientName: recipient,
			PayerName:     "PAGADOR",
		})
	}
}

func (s *ClientSuite) TestListFarmsUpperCasesSearch() {
	s.api.AddFarm(models.Farm{Name: "FAZENDA SÃO JOÃO"})
	s.api.AddFarm(models.Farm{Name: "FAZENDA LUA"})

	farms, err := s.client.ListFarms(s.ctx, "  são ")
	s.Require().NoError(err)
	s.Require().Len(farms, 1)
	s.Equal("FAZENDA SÃO JOÃO", farms[0].Name)
	s.Equal("SÃO", s.api.LastRequest().Query.Get("nome"))

	farms, err = s.client.ListFarms(s.ctx, "")
	s.Require().NoError(err)
	s.Len(farms, 2)
	_, hasSearch := s.api.LastRequest().Query["nome"]
	s.False(hasSearch)
}

func (s *ClientSuite) TestGetFarmNotFound() {
	_, err := s.client.GetFarm(s.ctx, 99)
	s.Require().Error(err)
	s.ErrorIs(err, core.ErrNotFound)
	s.ErrorIs(err, core.ErrRemote)

	var remote *apiclient.RemoteError
	s.Require().True(errors.As(err, &remote))
	s.Equal(http.StatusNotFound, remote.StatusCode)
	s.Equal("/api/fazenda/99", remote.Path)
}

func (s *ClientSuite) TestCreateFarmWithoutCopySendsNoCopyParams() {
	farm, err := s.client.CreateFarm(s.ctx, models.FarmCreate{Name: "SOL", PayerName: "JOÃO"})
	s.Require().NoError(err)
	s.NotZero(farm.ID)

	req := s.api.LastRequest()
	s.Equal(http.MethodPost, req.Method)
	s.Empty(req.Query)

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(req.Body, &body))
	s.Equal(float64(0), body["id"])
	s.Equal("SOL", body["nome"])
	s.Equal("JOÃO", body["pagadorNome"])
}

func (s *ClientSuite) TestCreateFarmCopiesReceipts() {
	origin := s.api.AddFarm(models.Farm{Name: "ORIGEM"})
	s.addReceipts(origin, 5, "MARIA") // datas 01..05/01/2024

	farm, err := s.client.CreateFarm(s.ctx, models.FarmCreate{
		Name:           "DESTINO",
		PayerName:      "JOÃO",
		CopyReceipts:   true,
		CopyFromFarmID: origin,
		ReceiptsDate:   models.NewDate(2024, time.January, 3),
	})
	s.Require().NoError(err)

	req := s.api.LastRequest()
	s.Equal("1", req.Query.Get(apiclient.ParamCopyFromFarm))
	s.Equal("2024-01-03", req.Query.Get(apiclient.ParamReceiptsDate))

	page, err := s.client.ListReceipts(s.ctx, utils.BuildQuery("", 1, farm.ID))
	s.Require().NoError(err)
	s.Equal(3, page.TotalRecords)
}

func (s *ClientSuite) TestUpdateAndDeleteFarm() {
	id := s.api.AddFarm(models.Farm{Name: "VELHO"})

	s.Require().NoError(s.client.UpdateFarm(s.ctx, models.FarmUpdate{ID: id, Name: "NOVO", PayerName: "ANA"}))
	farm, err := s.client.GetFarm(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("NOVO", farm.Name)

	s.Require().NoError(s.client.DeleteFarm(s.ctx, id))
	_, err = s.client.GetFarm(s.ctx, id)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ClientSuite) TestListReceiptsEncodesDescriptor() {
	farmA := s.api.AddFarm(models.Farm{Name: "A"})
	farmB := s.api.AddFarm(models.Farm{Name: "B"})
	s.addReceipts(farmA, 25, "MARIA")
	s.addReceipts(farmB, 3, "PEDRO")

	page, err := s.client.ListReceipts(s.ctx, utils.BuildQuery("maria", 3, farmA))
	s.Require().NoError(err)

	q := s.api.LastRequest().Query
	s.Equal("MARIA", q.Get("nome"))
	s.Equal("3", q.Get("PageNumber"))
	s.Equal("1", q.Get("FazendaId"))

	s.Equal(25, page.TotalRecords)
	s.Equal(apitest.PageSize, page.PageSize)
	s.Len(page.Data, 5)
	s.Nil(page.NextPage)
	s.NotNil(page.PreviousPage)

	_, err = s.client.ListReceipts(s.ctx, utils.BuildQuery("", 1, 0))
	s.Require().NoError(err)
	q = s.api.LastRequest().Query
	_, hasFarm := q["FazendaId"]
	_, hasSearch := q["nome"]
	s.False(hasFarm)
	s.False(hasSearch)
}

func (s *ClientSuite) TestReceiptLifecycle() {
	farmID := s.api.AddFarm(models.Farm{Name: "SOL", PayerName: "JOÃO"})

	saved, err := s.client.CreateReceipt(s.ctx, models.ReceiptInput{
		FarmID:        farmID,
		Date:          models.NewDate(2024, time.March, 15),
		Value:         decimal.RequireFromString("10.50"),
		RecipientName: "MARIA",
		PayerName:     "JOÃO",
	})
	s.Require().NoError(err)
	s.NotZero(saved.ID)
	s.Equal(1, saved.Number)
	s.Equal("SOL", saved.Farm.Name)
	s.True(decimal.RequireFromString("10.5").Equal(saved.Value))

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(s.api.LastRequest().Body, &body))
	s.Equal(".", body["fazenda"].(map[string]interface{})["nome"])
	s.Contains(string(s.api.LastRequest().Body), `"valor":10.50`)

	in := models.ReceiptInput{
		ID:            saved.ID,
		Number:        saved.Number,
		FarmID:        farmID,
		Date:          saved.Date,
		Value:         decimal.RequireFromString("99.90"),
		RecipientName: "MARIA",
		PayerName:     "JOÃO",
	}
	s.Require().NoError(s.client.UpdateReceipt(s.ctx, in, "SOL"))

	got, err := s.client.GetReceipt(s.ctx, saved.ID)
	s.Require().NoError(err)
	s.Equal("99.90", got.Value.StringFixed(2))
	s.Equal("2024-03-15", got.Date.String())

	s.Require().NoError(s.client.DeleteReceipt(s.ctx, saved.ID))
	_, err = s.client.GetReceipt(s.ctx, saved.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *ClientSuite) TestRequestIDHeader() {
	_, err := s.client.ListFarms(s.ctx, "")
	s.Require().NoError(err)
	_, parseErr := uuid.Parse(s.api.LastRequest().RequestID)
	s.NoError(parseErr, "id gerado deve ser um UUID")

	ctx := apiclient.WithRequestID(s.ctx, "meu-id")
	_, err = s.client.ListFarms(ctx, "")
	s.Require().NoError(err)
	s.Equal("meu-id", s.api.LastRequest().RequestID)
}

func (s *ClientSuite) TestServerErrorIsRemote() {
	s.api.FailNext(http.StatusInternalServerError)
	_, err := s.client.ListFarms(s.ctx, "")
	s.Require().Error(err)
	s.ErrorIs(err, core.ErrRemote)
	s.NotErrorIs(err, core.ErrNotFound)
	s.Contains(err.Error(), "500")
	s.Contains(err.Error(), "falha simulada")

	// Sem novas tentativas: uma falha, uma requisição.
	s.Equal(1, s.api.CountRequests(http.MethodGet, "/api/fazenda"))
}

func (s *ClientSuite) TestReportURLs() {
	base := s.api.URL()
	s.Equal(base+"/api/relatoriorecibo/unico?id=7", s.client.ReceiptReportURL(7))
	s.Equal(base+"/api/relatoriorecibo/fazenda?FazendaId=3", s.client.FarmReceiptsReportURL(3))
	s.Equal(base+"/api/relatoriolistagem?FazendaId=0", s.client.ListingReportURL(0))
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client, err := apiclient.New(addr, time.Second)
	require.NoError(t, err)

	_, err = client.ListFarms(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRemote)

	var remote *apiclient.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Zero(t, remote.StatusCode)
}

func TestClientContextCanceled(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	client, err := apiclient.New(api.URL(), time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.ListFarms(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, core.ErrRemote)
}

func TestClientInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>não é json</html>"))
	}))
	defer srv.Close()
	client, err := apiclient.New(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.GetReceipt(context.Background(), 1)
	assert.ErrorIs(t, err, core.ErrRemote)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := apiclient.New("servidor:5000", time.Second)
	assert.ErrorIs(t, err, core.ErrConfiguration)

	cfg := &core.Config{APIURL: "http://localhost:5000", APITimeout: time.Second}
	client, err := apiclient.NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", client.BaseURL())
}
