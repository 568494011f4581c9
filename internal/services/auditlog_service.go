package services

import (
	"context"
	"strings"
	"time"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/repositories"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// Ações registradas na auditoria.
const (
	ActionFarmCreate    = "FAZENDA_CRIAR"
	ActionFarmUpdate    = "FAZENDA_EDITAR"
	ActionFarmDelete    = "FAZENDA_EXCLUIR"
	ActionReceiptCreate = "RECIBO_CRIAR"
	ActionReceiptUpdate = "RECIBO_EDITAR"
	ActionReceiptDelete = "RECIBO_EXCLUIR"
	ActionExport        = "EXPORTACAO"
)

// maxDescriptionLen é o tamanho máximo da descrição gravada.
const maxDescriptionLen = 4000

// AuditLogPage é uma página da trilha de auditoria com a barra de paginação.
type AuditLogPage struct {
	Entries []models.AuditLogEntry
	Pages   utils.PageDescriptor
}

// AuditLogService define a interface para o serviço de log de auditoria.
type AuditLogService interface {
	// LogAction valida e grava uma entrada. Se a entrada não tiver RequestID,
	// usa o id de requisição associado ao contexto.
	LogAction(ctx context.Context, entry models.AuditLogEntry) error

	// GetAuditLogs busca uma página (a partir de 1) da trilha, mais recentes primeiro.
	GetAuditLogs(ctx context.Context, filter models.AuditLogFilter, page, pageSize int) (*AuditLogPage, error)
}

// auditLogServiceImpl é a implementação de AuditLogService.
type auditLogServiceImpl struct {
	repo repositories.AuditLogRepository
	now  func() time.Time
}

// NewAuditLogService cria uma nova instância de AuditLogService.
func NewAuditLogService(repo repositories.AuditLogRepository) AuditLogService {
	if repo == nil {
		appLogger.Fatalf("AuditLogRepository não pode ser nil para NewAuditLogService")
	}
	return &auditLogServiceImpl{repo: repo, now: time.Now}
}

// LogAction registra uma ação de auditoria no banco de dados.
func (s *auditLogServiceImpl) LogAction(ctx context.Context, entry models.AuditLogEntry) error {
	// 1. Validar e normalizar
	entry.Action = strings.ToUpper(strings.TrimSpace(entry.Action))
	if entry.Action == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "ação do log de auditoria não pode ser vazia")
	}
	entry.Description = utils.SanitizeInput(entry.Description)
	if entry.Description == "" {
		return appErrors.WrapErrorf(appErrors.ErrInvalidInput, "descrição do log de auditoria não pode ser vazia")
	}

	normalizedSeverity := strings.ToUpper(strings.TrimSpace(entry.Severity))
	if !models.ValidSeverities[normalizedSeverity] {
		if entry.Severity != "" {
			appLogger.Warnf("Nível de severidade inválido '%s' fornecido para log. Usando 'INFO'. Ação: %s", entry.Severity, entry.Action)
		}
		normalizedSeverity = "INFO"
	}
	entry.Severity = normalizedSeverity

	if runes := []rune(entry.Description); len(runes) > maxDescriptionLen {
		entry.Description = string(runes[:maxDescriptionLen-3]) + "..."
		appLogger.Warnf("Descrição do log de auditoria truncada para %d caracteres. Ação: %s", maxDescriptionLen, entry.Action)
	}

	// 2. Id da requisição enviada à API
	if entry.RequestID == nil {
		if id, ok := apiclient.RequestIDFrom(ctx); ok {
			entry.RequestID = &id
		}
	}

	// 3. Timestamp
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	// 4. Persistir
	if _, err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.WrapErrorf(err, "falha ao persistir log de auditoria (Ação: %s)", entry.Action)
	}
	return nil
}

// GetAuditLogs busca logs de auditoria com base nos filtros fornecidos.
func (s *auditLogServiceImpl) GetAuditLogs(ctx context.Context, filter models.AuditLogFilter, page, pageSize int) (*AuditLogPage, error) {
	if pageSize <= 0 {
		pageSize = repositories.DefaultAuditPageSize
	}
	if pageSize > repositories.MaxAuditPageSize {
		appLogger.Warnf("Solicitação de GetAuditLogs com limite > %d. Reduzido.", repositories.MaxAuditPageSize)
		pageSize = repositories.MaxAuditPageSize
	}
	if page < 1 {
		page = 1
	}
	filter.Severity = strings.ToUpper(strings.TrimSpace(filter.Severity))
	filter.Action = strings.TrimSpace(filter.Action)

	entries, total, err := s.repo.GetFiltered(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao buscar logs de auditoria do repositório")
	}
	return &AuditLogPage{
		Entries: entries,
		Pages:   utils.DerivePages(int(total), pageSize, page),
	}, nil
}

// recordAudit grava a entrada e apenas avisa em caso de falha: a alteração
// na API já foi feita e não deve ser reportada como erro.
func recordAudit(ctx context.Context, svc AuditLogService, entry models.AuditLogEntry) {
	if svc == nil {
		return
	}
	if err := svc.LogAction(ctx, entry); err != nil {
		appLogger.Warnf("Falha ao registrar log de auditoria (Ação: %s): %v", entry.Action, err)
	}
}

// ensureRequestID garante que o contexto carregue um id de requisição,
// compartilhado entre a chamada à API e a entrada de auditoria.
func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := apiclient.RequestIDFrom(ctx); ok {
		return ctx, id
	}
	id := apiclient.NewRequestID()
	return apiclient.WithRequestID(ctx, id), id
}

func uint64Ptr(v uint64) *uint64 { return &v }
