package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMetadata é um tipo customizado para o campo metadata, gravado como JSON no banco.
// Ele implementa as interfaces sql.Scanner e driver.Valuer.
type JSONMetadata map[string]interface{}

// Value implementa a interface driver.Valuer.
func (jm JSONMetadata) Value() (driver.Value, error) {
	if jm == nil {
		return nil, nil
	}
	b, err := json.Marshal(jm)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implementa a interface sql.Scanner.
func (jm *JSONMetadata) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*jm = nil
		return nil
	case []byte: // O driver geralmente retorna []byte para TEXT/JSONB
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("tipo de valor inválido para JSONMetadata scan, esperado []byte ou string")
	}
	if len(b) == 0 {
		*jm = make(JSONMetadata)
		return nil
	}
	return json.Unmarshal(b, jm)
}

// Tipos de entidade registrados na auditoria.
const (
	EntityFarm    = "FAZENDA"
	EntityReceipt = "RECIBO"
	EntityExport  = "EXPORTACAO"
)

// AuditLogEntry é o registro local de cada alteração feita através do cliente.
// A API não expõe histórico, então a trilha fica no banco da estação.
type AuditLogEntry struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement"`
	Timestamp   time.Time    `gorm:"not null;index"`
	Action      string       `gorm:"type:varchar(100);not null;index"` // ex: RECIBO_CRIAR
	Description string       `gorm:"type:text;not null"`
	Severity    string       `gorm:"type:varchar(10);not null;index"` // DEBUG, INFO, WARNING, ERROR, CRITICAL
	EntityType  string       `gorm:"type:varchar(20);index"`
	EntityID    *uint64      `gorm:"index"`
	RequestID   *string      `gorm:"type:varchar(36)"` // X-Request-ID enviado à API
	Metadata    JSONMetadata `gorm:"type:text"`
}

// TableName especifica o nome da tabela para GORM.
func (AuditLogEntry) TableName() string {
	return "audit_logs"
}

// AuditLogFilter restringe a consulta da trilha de auditoria.
// Campos vazios/nil não filtram.
type AuditLogFilter struct {
	Action     string
	Severity   string
	EntityType string
	EntityID   *uint64
	Since      *time.Time
	Until      *time.Time
}

// ValidSeverities define os níveis de severidade válidos.
var ValidSeverities = map[string]bool{
	"DEBUG":    true,
	"INFO":     true,
	"WARNING":  true,
	"ERROR":    true,
	"CRITICAL": true,
}
