package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient/apitest"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/cache"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/repositories"
)

// harness liga os serviços a uma API falsa e a um banco sqlite temporário.
type harness struct {
	api       *apitest.FakeAPI
	client    *apiclient.Client
	cache     *cache.QueryCache
	repo      repositories.AuditLogRepository
	audit     AuditLogService
	farms     FarmService
	receipts  ReceiptService
	export    ExportService
	exportDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := apitest.New()
	t.Cleanup(api.Close)

	client, err := apiclient.New(api.URL(), 5*time.Second)
	require.NoError(t, err)

	db, err := data.InitializeDB(&core.Config{DBEngine: "sqlite", DBName: filepath.Join(t.TempDir(), "auditoria.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.CloseDB(db) })

	h := &harness{
		api:       api,
		client:    client,
		cache:     cache.New(time.Minute),
		repo:      repositories.NewGormAuditLogRepository(db),
		exportDir: t.TempDir(),
	}
	h.audit = NewAuditLogService(h.repo)
	h.farms = NewFarmService(client, h.cache, h.audit)
	h.receipts = NewReceiptService(client, h.cache, h.farms, h.audit)
	h.export = NewExportService(client, h.exportDir, h.audit)
	return h
}

// auditEntries retorna toda a trilha, mais recente primeiro.
func (h *harness) auditEntries(t *testing.T) []models.AuditLogEntry {
	t.Helper()
	entries, _, err := h.repo.GetFiltered(context.Background(), models.AuditLogFilter{}, repositories.MaxAuditPageSize, 0)
	require.NoError(t, err)
	return entries
}

// failingAudit simula um banco de auditoria indisponível.
type failingAudit struct{ calls int }

func (f *failingAudit) LogAction(context.Context, models.AuditLogEntry) error {
	f.calls++
	return errors.New("banco indisponível")
}

func (f *failingAudit) GetAuditLogs(context.Context, models.AuditLogFilter, int, int) (*AuditLogPage, error) {
	return nil, errors.New("banco indisponível")
}
