package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/cache"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/repositories"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/services"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		return exitUsage
	}

	// --- 1. Carregar Configurações ---
	envPath := os.Getenv("APP_ENV_FILE")
	if envPath == "" {
		envPath = ".env"
	}
	cfg, err := core.LoadConfig(envPath)
	if err != nil {
		log.Printf("Erro CRÍTICO ao carregar configuração: %v", err)
		return exitError
	}

	// --- 2. Configurar Logger ---
	if err := appLogger.SetupLogger(cfg); err != nil {
		log.Printf("Erro CRÍTICO ao configurar logger: %v", err)
		return exitError
	}
	appLogger.Infof("Iniciando %s v%s (comando: %s)", cfg.AppName, cfg.AppVersion, os.Args[1])
	appLogger.Debugf("Modo Debug: %t", cfg.AppDebug)

	// --- 3. Banco de dados local (auditoria) ---
	db, err := data.InitializeDB(cfg)
	if err != nil {
		appLogger.Errorf("Erro CRÍTICO ao inicializar banco de dados: %v", err)
		fmt.Fprintf(os.Stderr, "Erro ao abrir o banco de auditoria: %v\n", err)
		return exitError
	}
	defer func() {
		if err := data.CloseDB(db); err != nil {
			appLogger.Errorf("Erro ao fechar conexão com banco de dados: %v", err)
		}
	}()

	// --- 4. Cliente da API e serviços ---
	client, err := apiclient.NewFromConfig(cfg)
	if err != nil {
		appLogger.Errorf("Erro CRÍTICO ao criar cliente da API: %v", err)
		fmt.Fprintf(os.Stderr, "Configuração da API inválida: %v\n", err)
		return exitError
	}
	queryCache := cache.New(cfg.QueryCacheTTL)

	auditLogService := services.NewAuditLogService(repositories.NewGormAuditLogRepository(db))
	farmService := services.NewFarmService(client, queryCache, auditLogService)
	a := &app{
		farms:    farmService,
		receipts: services.NewReceiptService(client, queryCache, farmService, auditLogService),
		export:   services.NewExportService(client, cfg.ExportDir, auditLogService),
		audit:    auditLogService,
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		width:    terminalWidth(os.Stdout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := a.dispatch(ctx, os.Args[1], os.Args[2:])
	appLogger.Infof("Comando %s finalizado com código %d", os.Args[1], code)
	return code
}

// terminalWidth retorna 0 quando a saída não é um terminal (pipe, arquivo).
func terminalWidth(f *os.File) int {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
