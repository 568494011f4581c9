package data

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger" // Logger do GORM

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
)

// InitializeDB abre o banco local da trilha de auditoria e executa as migrações.
// Fazendas e recibos vivem na API; aqui só ficam os registros de auditoria.
func InitializeDB(cfg *core.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	appLogger.Infof("Inicializando conexão com banco de dados: %s", cfg.DBEngine)

	gormLogLevel := gormlogger.Silent
	if cfg.AppDebug {
		gormLogLevel = gormlogger.Info // Loga todas as queries SQL em modo debug
	}
	gormLog := gormlogger.New(
		appLogger.WithFields(logrus.Fields{"component": "gorm"}),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	switch cfg.DBEngine {
	case "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
		appLogger.Infof("Conectando ao PostgreSQL: host=%s dbname=%s user=%s port=%d", cfg.DBHost, cfg.DBName, cfg.DBUser, cfg.DBPort)
	case "sqlite":
		// O diretório do arquivo já foi criado por LoadConfig.
		dialector = sqlite.Open(cfg.DBName + "?_foreign_keys=on")
		appLogger.Infof("Usando banco de dados SQLite: %s", cfg.DBName)
	default:
		return nil, fmt.Errorf("%w: motor de banco de dados não suportado: %s", core.ErrConfiguration, cfg.DBEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormLog,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		appLogger.Errorf("Falha ao conectar ao banco de dados %s: %v", cfg.DBEngine, err)
		return nil, core.NewDatabaseErrorDetail("abrindo conexão com "+cfg.DBEngine, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Falha ao obter instância *sql.DB do GORM: %v", err)
		return nil, core.NewDatabaseErrorDetail("configurando pool de conexões", err)
	}
	if cfg.DBEngine == "sqlite" {
		// SQLite aceita um único escritor; uma conexão evita "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	appLogger.Info("Conexão com banco de dados estabelecida.")

	if err := Migrate(db); err != nil {
		_ = CloseDB(db)
		return nil, err
	}
	return db, nil
}

// Migrate cria/atualiza as tabelas dos modelos locais.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("%w: instância de banco de dados é nil, não é possível migrar", core.ErrDatabase)
	}
	appLogger.Info("Executando migrações automáticas do GORM...")
	if err := db.AutoMigrate(&models.AuditLogEntry{}); err != nil {
		appLogger.Errorf("Falha durante AutoMigrate: %v", err)
		return core.NewDatabaseErrorDetail("migrando esquema", err)
	}
	appLogger.Info("Migrações automáticas do GORM concluídas.")
	return nil
}

// CloseDB fecha a conexão com o banco de dados.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		appLogger.Warn("Tentativa de fechar conexão DB nula.")
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		appLogger.Errorf("Erro ao obter *sql.DB para fechar: %v", err)
		return err
	}
	appLogger.Info("Fechando conexão com o banco de dados...")
	return sqlDB.Close()
}
