package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/cache"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/forms"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// FarmService define a interface para o serviço de fazendas.
type FarmService interface {
	ListFarms(ctx context.Context, search string) ([]models.Farm, error)
	GetFarm(ctx context.Context, id uint64) (*models.Farm, error)
	// CreateFarm valida o formulário e cria a fazenda, copiando recibos se marcado.
	CreateFarm(ctx context.Context, form *forms.FarmForm) (*models.Farm, error)
	UpdateFarm(ctx context.Context, form *forms.FarmEditForm) (*models.Farm, error)
	DeleteFarm(ctx context.Context, id uint64) error
}

// farmServiceImpl é a implementação de FarmService.
type farmServiceImpl struct {
	api             *apiclient.Client
	cache           *cache.QueryCache
	auditLogService AuditLogService
}

// NewFarmService cria uma nova instância de FarmService.
// queryCache e auditLogService podem ser nil (sem cache, sem auditoria).
func NewFarmService(api *apiclient.Client, queryCache *cache.QueryCache, auditLogService AuditLogService) FarmService {
	if api == nil {
		appLogger.Fatalf("Cliente da API não pode ser nil para NewFarmService")
	}
	if auditLogService == nil {
		appLogger.Warn("AuditLogService é nil para NewFarmService. Alterações de fazendas não serão auditadas.")
	}
	return &farmServiceImpl{api: api, cache: queryCache, auditLogService: auditLogService}
}

func (s *farmServiceImpl) ListFarms(ctx context.Context, search string) ([]models.Farm, error) {
	key := cache.Key(cache.ResourceFarms, utils.BuildQuery(search, 1, 0).Key())
	farms, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]models.Farm, error) {
		return s.api.ListFarms(ctx, search)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(farms), nil
}

func (s *farmServiceImpl) GetFarm(ctx context.Context, id uint64) (*models.Farm, error) {
	key := cache.Key(cache.ResourceFarm, strconv.FormatUint(id, 10))
	cached, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.Farm, error) {
		return s.api.GetFarm(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	farm := *cached
	return &farm, nil
}

func (s *farmServiceImpl) CreateFarm(ctx context.Context, form *forms.FarmForm) (*models.Farm, error) {
	// 1. Validar formulário
	in, err := form.Validate()
	if err != nil {
		appLogger.Warnf("Dados de criação de fazenda inválidos: %v", err)
		return nil, err
	}

	// 2. Chamar a API
	ctx, requestID := ensureRequestID(ctx)
	created, err := s.api.CreateFarm(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	appLogger.Infof("Fazenda '%s' criada (ID %d)", created.Name, created.ID)

	// 3. Log de auditoria
	metadata := models.JSONMetadata{"nome": created.Name}
	description := fmt.Sprintf("Fazenda '%s' criada.", created.Name)
	if in.CopyReceipts {
		metadata["fazenda_origem_id"] = in.CopyFromFarmID
		metadata["data_recibos"] = in.ReceiptsDate.String()
		description = fmt.Sprintf("Fazenda '%s' criada com cópia dos recibos da fazenda ID %d a partir de %s.",
			created.Name, in.CopyFromFarmID, in.ReceiptsDate.BR())
	}
	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionFarmCreate,
		Description: description,
		Severity:    "INFO",
		EntityType:  models.EntityFarm,
		EntityID:    entityID(created.ID),
		RequestID:   &requestID,
		Metadata:    metadata,
	})
	return created, nil
}

func (s *farmServiceImpl) UpdateFarm(ctx context.Context, form *forms.FarmEditForm) (*models.Farm, error) {
	in, err := form.Validate()
	if err != nil {
		appLogger.Warnf("Dados de edição da fazenda ID %d inválidos: %v", form.ID, err)
		return nil, err
	}

	ctx, requestID := ensureRequestID(ctx)
	if err := s.api.UpdateFarm(ctx, in); err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	updated := in.Farm()

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionFarmUpdate,
		Description: fmt.Sprintf("Fazenda '%s' (ID %d) atualizada.", updated.Name, updated.ID),
		Severity:    "INFO",
		EntityType:  models.EntityFarm,
		EntityID:    uint64Ptr(updated.ID),
		RequestID:   &requestID,
		Metadata:    models.JSONMetadata{"nome": updated.Name},
	})
	return &updated, nil
}

func (s *farmServiceImpl) DeleteFarm(ctx context.Context, id uint64) error {
	ctx, requestID := ensureRequestID(ctx)

	// Busca o nome só para o log; falhas aqui não impedem a exclusão.
	farmToLog := fmt.Sprintf("ID %d", id)
	if farm, err := s.api.GetFarm(ctx, id); err == nil {
		farmToLog = fmt.Sprintf("'%s' (ID %d)", farm.Name, id)
	} else {
		appLogger.Debugf("Fazenda ID %d não carregada antes da exclusão: %v", id, err)
	}

	if err := s.api.DeleteFarm(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionFarmDelete,
		Description: fmt.Sprintf("Fazenda %s excluída.", farmToLog),
		Severity:    "WARNING",
		EntityType:  models.EntityFarm,
		EntityID:    uint64Ptr(id),
		RequestID:   &requestID,
	})
	return nil
}

// entityID retorna nil para id 0 (API não devolveu o registro criado).
func entityID(id uint64) *uint64 {
	if id == 0 {
		return nil
	}
	return &id
}
