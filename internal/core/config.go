package core

import (
	"fmt"
	"log" // Usado para logs iniciais antes que o logger da aplicação esteja configurado
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config struct para armazenar todas as configurações da aplicação
type Config struct {
	AppName    string
	AppVersion string
	AppDebug   bool

	// API de fazendas/recibos
	APIURL        string
	APITimeout    time.Duration
	QueryCacheTTL time.Duration // 0 desabilita o cache de consultas

	// Database (trilha de auditoria local)
	DBEngine   string
	DBName     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string

	// Logging
	LogDir         string
	LogLevel       string
	LogMaxBytes    int
	LogBackupCount int
	LogToConsole   bool

	// Export
	ExportDir string
}

// LoadConfig carrega as configurações do arquivo .env especificado ou encontrado na árvore de diretórios.
func LoadConfig(envPath string) (*Config, error) {
	foundEnvPath, err := findEnvFile(envPath)
	if err != nil {
		log.Printf("Aviso: Arquivo .env em '%s' não encontrado ou inacessível: %v. Usando variáveis de ambiente existentes ou defaults.", envPath, err)
	} else {
		log.Printf("Carregando configurações de: %s", foundEnvPath)
		// godotenv.Load não sobrescreve variáveis já definidas no ambiente.
		if err := godotenv.Load(foundEnvPath); err != nil {
			log.Printf("Aviso: Erro ao carregar arquivo .env de '%s': %v. Usando valores padrão ou variáveis de ambiente existentes.", foundEnvPath, err)
		}
	}

	cfg := &Config{}

	cfg.AppName = getEnv("APP_NAME", "Recibos App GO")
	cfg.AppVersion = getEnv("APP_VERSION", "1.0.0-go")
	cfg.AppDebug = getEnvAsBool("APP_DEBUG", false)

	cfg.APIURL = strings.TrimRight(getEnv("APP_API_URL", "http://localhost:5000"), "/")
	cfg.APITimeout = getEnvAsDuration("APP_API_TIMEOUT", 30)
	cfg.QueryCacheTTL = getEnvAsDuration("APP_QUERY_CACHE_TTL", 60)

	cfg.DBEngine = strings.ToLower(getEnv("APP_DB_ENGINE", "sqlite"))
	cfg.DBName = getEnv("APP_DB_NAME", "recibos_auditoria.db")
	cfg.DBHost = getEnv("APP_DB_HOST", "localhost")
	cfg.DBPort = getEnvAsInt("APP_DB_PORT", 5432)
	cfg.DBUser = getEnv("APP_DB_USER", "user")
	cfg.DBPassword = getEnv("APP_DB_PASSWORD", "password")

	cfg.LogDir = getEnv("APP_LOG_DIR", "./app_logs")
	cfg.LogLevel = strings.ToUpper(getEnv("APP_LOG_LEVEL", "INFO"))
	cfg.LogMaxBytes = getEnvAsInt("APP_LOG_MAX_BYTES", 5*1024*1024) // 5MB
	cfg.LogBackupCount = getEnvAsInt("APP_LOG_BACKUP_COUNT", 7)
	cfg.LogToConsole = getEnvAsBool("APP_LOG_TO_CONSOLE", true)

	cfg.ExportDir = getEnv("APP_EXPORT_DIR", "./app_exports")

	// Validações de Configurações Críticas
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// LogDir é crítico
	if err := ensureDir(cfg.LogDir, true); err != nil {
		return nil, fmt.Errorf("falha ao criar diretório de log essencial '%s': %w", cfg.LogDir, err)
	}
	// Diretório do banco de dados SQLite (se usado)
	if cfg.DBEngine == "sqlite" {
		sqliteDir := filepath.Dir(cfg.DBName)
		if sqliteDir != "." && sqliteDir != string(filepath.Separator) {
			if err := ensureDir(sqliteDir, true); err != nil {
				return nil, fmt.Errorf("falha ao criar diretório para banco de dados SQLite '%s': %w", sqliteDir, err)
			}
		}
	}
	_ = ensureDir(cfg.ExportDir, false)

	log.Println("Configurações carregadas e validadas.")
	return cfg, nil
}

func (cfg *Config) validate() error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: APP_API_URL inválida '%s'", ErrConfiguration, cfg.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: APP_API_URL deve usar http ou https, recebido '%s'", ErrConfiguration, u.Scheme)
	}
	if cfg.APITimeout <= 0 {
		return fmt.Errorf("%w: APP_API_TIMEOUT deve ser positivo", ErrConfiguration)
	}
	if cfg.QueryCacheTTL < 0 {
		cfg.QueryCacheTTL = 0
	}
	switch cfg.DBEngine {
	case "sqlite", "postgresql":
	default:
		return fmt.Errorf("%w: motor de banco de dados não suportado: %s", ErrConfiguration, cfg.DBEngine)
	}
	return nil
}

// findEnvFile tenta localizar o arquivo .env.
// Primeiro no path fornecido, depois subindo na árvore de diretórios a partir do CWD.
func findEnvFile(envPath string) (string, error) {
	if _, err := os.Stat(envPath); err == nil {
		absPath, _ := filepath.Abs(envPath)
		return absPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("não foi possível obter o diretório de trabalho atual: %w", err)
	}

	// Máximo 5 níveis
	for i := 0; i < 5; i++ {
		tryPath := filepath.Join(cwd, ".env")
		if _, err := os.Stat(tryPath); err == nil {
			return tryPath, nil
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return "", fmt.Errorf("arquivo .env não encontrado no caminho '%s' ou nos diretórios pais", envPath)
}

// ensureDir garante que um diretório exista, criando-o se necessário.
// Se 'critical' for true, retorna erro em caso de falha. Caso contrário, apenas loga um aviso.
func ensureDir(dirPath string, critical bool) error {
	absPath, err := filepath.Abs(dirPath)
	if err != nil {
		if critical {
			return fmt.Errorf("não foi possível resolver o caminho absoluto para '%s': %w", dirPath, err)
		}
		log.Printf("AVISO: não foi possível resolver o caminho absoluto para '%s': %v", dirPath, err)
		return nil
	}

	if err := os.MkdirAll(absPath, os.ModePerm); err != nil {
		if critical {
			return fmt.Errorf("não foi possível criar o diretório '%s': %w", absPath, err)
		}
		log.Printf("AVISO: não foi possível criar o diretório '%s': %v", absPath, err)
	}
	return nil
}

// getEnv recupera o valor de uma variável de ambiente ou retorna um fallback.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt recupera uma variável de ambiente como int ou retorna um fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsBool recupera uma variável de ambiente como bool ou retorna um fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration recupera uma variável de ambiente como time.Duration em segundos, ou retorna um fallback.
func getEnvAsDuration(key string, fallbackSeconds int) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	return time.Duration(fallbackSeconds) * time.Second
}
