package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
)

func TestLogActionValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.audit.LogAction(ctx, models.AuditLogEntry{Action: "  ", Description: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	err = h.audit.LogAction(ctx, models.AuditLogEntry{Action: "RECIBO_CRIAR", Description: " \n "})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Empty(t, h.auditEntries(t))
}

func TestLogActionNormalizes(t *testing.T) {
	h := newHarness(t)
	ctx := apiclient.WithRequestID(context.Background(), "req-123")

	require.NoError(t, h.audit.LogAction(ctx, models.AuditLogEntry{
		Action:      "recibo_criar",
		Description: "Recibo   criado",
		Severity:    "urgente",
	}))

	entries := h.auditEntries(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "RECIBO_CRIAR", e.Action)
	assert.Equal(t, "Recibo criado", e.Description)
	assert.Equal(t, "INFO", e.Severity, "severidade inválida cai para INFO")
	require.NotNil(t, e.RequestID)
	assert.Equal(t, "req-123", *e.RequestID)
	assert.False(t, e.Timestamp.IsZero())
}

func TestLogActionStoresUTC(t *testing.T) {
	h := newHarness(t)
	brt := time.FixedZone("BRT", -3*60*60)

	require.NoError(t, h.audit.LogAction(context.Background(), models.AuditLogEntry{
		Action:      ActionFarmUpdate,
		Description: "fazenda editada",
		Timestamp:   time.Date(2024, time.May, 10, 23, 30, 0, 0, brt),
	}))

	entries := h.auditEntries(t)
	require.Len(t, entries, 1)
	assert.True(t, time.Date(2024, time.May, 11, 2, 30, 0, 0, time.UTC).Equal(entries[0].Timestamp))

	// o filtro por dia compara no banco; o registro pertence a 11/05 em UTC
	day := time.Date(2024, time.May, 11, 0, 0, 0, 0, time.UTC)
	page, err := h.audit.GetAuditLogs(context.Background(), models.AuditLogFilter{Since: &day, Until: &day}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 1)
}

func TestLogActionTruncatesDescription(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("ã", maxDescriptionLen+50)

	require.NoError(t, h.audit.LogAction(context.Background(), models.AuditLogEntry{
		Action:      ActionExport,
		Description: long,
		Severity:    "warning",
	}))

	entries := h.auditEntries(t)
	require.Len(t, entries, 1)
	runes := []rune(entries[0].Description)
	assert.Len(t, runes, maxDescriptionLen)
	assert.True(t, strings.HasSuffix(entries[0].Description, "..."))
	assert.Equal(t, "WARNING", entries[0].Severity)
}

func TestGetAuditLogsPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	base := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 23; i++ {
		require.NoError(t, h.audit.LogAction(ctx, models.AuditLogEntry{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Action:      ActionReceiptCreate,
			Description: fmt.Sprintf("recibo %d", i),
			EntityType:  models.EntityReceipt,
		}))
	}
	require.NoError(t, h.audit.LogAction(ctx, models.AuditLogEntry{
		Timestamp:   base,
		Action:      ActionFarmCreate,
		Description: "fazenda",
		EntityType:  models.EntityFarm,
	}))

	page, err := h.audit.GetAuditLogs(ctx, models.AuditLogFilter{EntityType: models.EntityReceipt}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page.Entries, 3)
	assert.Equal(t, 23, page.Pages.TotalRecords)
	assert.Equal(t, 3, page.Pages.TotalPages)
	assert.Equal(t, 3, page.Pages.CurrentPage)
	assert.False(t, page.Pages.HasNext)
	assert.Equal(t, []int{1, 2, 3}, page.Pages.Pages())
	// mais recentes primeiro: a página 3 tem os três mais antigos
	assert.Equal(t, "recibo 2", page.Entries[0].Description)

	page, err = h.audit.GetAuditLogs(ctx, models.AuditLogFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pages.CurrentPage)
	assert.Len(t, page.Entries, 24)
}
