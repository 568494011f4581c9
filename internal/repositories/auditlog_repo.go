package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
)

// Limites de paginação da leitura da auditoria.
const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 1000
)

// AuditLogRepository define a interface para operações no repositório de logs de auditoria.
type AuditLogRepository interface {
	// Create insere uma nova entrada de log de auditoria.
	Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error)

	// GetFiltered busca logs com base no filtro, mais recentes primeiro.
	// Retorna as entradas da página e o total de registros que correspondem ao filtro.
	GetFiltered(ctx context.Context, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error)
}

// gormAuditLogRepository é a implementação GORM de AuditLogRepository.
type gormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository cria uma nova instância de gormAuditLogRepository.
func NewGormAuditLogRepository(db *gorm.DB) AuditLogRepository {
	if db == nil {
		appLogger.Fatalf("gorm.DB não pode ser nil para NewGormAuditLogRepository")
	}
	return &gormAuditLogRepository{db: db}
}

func (r *gormAuditLogRepository) Create(ctx context.Context, entry models.AuditLogEntry) (*models.AuditLogEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Severity = strings.ToUpper(entry.Severity)

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// Metadata pode conter documentos; não vai para o log.
		appLogger.Errorf("Erro ao criar entrada de log de auditoria (Ação: %s, Entidade: %s): %v",
			entry.Action, entry.EntityType, err)
		return nil, appErrors.NewDatabaseErrorDetail("gravando auditoria", err)
	}
	return &entry, nil
}

func (r *gormAuditLogRepository) GetFiltered(ctx context.Context, filter models.AuditLogFilter, limit, offset int) ([]models.AuditLogEntry, int64, error) {
	var entries []models.AuditLogEntry
	var totalCount int64

	// Count e Find usam instâncias separadas para que o SELECT COUNT não vaze para a busca.
	if err := applyAuditFilter(r.db.WithContext(ctx), filter).Count(&totalCount).Error; err != nil {
		appLogger.Errorf("Erro ao contar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("contando auditoria", err)
	}
	if totalCount == 0 {
		return []models.AuditLogEntry{}, 0, nil
	}

	if limit <= 0 {
		limit = DefaultAuditPageSize
	} else if limit > MaxAuditPageSize {
		limit = MaxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := applyAuditFilter(r.db.WithContext(ctx), filter).
		Order("timestamp DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		appLogger.Errorf("Erro ao buscar logs de auditoria filtrados: %v", err)
		return nil, 0, appErrors.NewDatabaseErrorDetail("buscando auditoria", err)
	}
	return entries, totalCount, nil
}

// applyAuditFilter aplica os filtros preenchidos. Datas cobrem o dia inteiro.
func applyAuditFilter(db *gorm.DB, filter models.AuditLogFilter) *gorm.DB {
	query := db.Model(&models.AuditLogEntry{})

	if s := filter.Since; s != nil {
		query = query.Where("timestamp >= ?", time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location()).UTC())
	}
	if u := filter.Until; u != nil {
		query = query.Where("timestamp <= ?", time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, u.Location()).UTC())
	}
	if filter.Severity != "" {
		query = query.Where("UPPER(severity) = UPPER(?)", filter.Severity)
	}
	if filter.Action != "" {
		query = query.Where("LOWER(action) = LOWER(?)", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("UPPER(entity_type) = UPPER(?)", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	return query
}
