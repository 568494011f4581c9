package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// ExportFormat é o formato do arquivo exportado.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

const (
	// maxExportPages protege contra um total de páginas absurdo vindo do servidor.
	maxExportPages = 10000
	exportWorkers  = 4
)

// Cabeçalhos da planilha de recibos.
const (
	ColRecipientDocument = "Documento Beneficiário"
	ColPayerDocument     = "Documento Pagador"
)

var receiptHeaders = []string{
	"Número", "Fazenda", "Data", "Valor", "Beneficiário", ColRecipientDocument,
	"Pagador", ColPayerDocument, "Histórico",
}

const receiptValueColumn = 3

// ExportRequest descreve uma exportação da listagem de recibos.
type ExportRequest struct {
	Search     string
	FarmID     uint64 // 0 = todas as fazendas
	Format     ExportFormat
	OutputPath string // relativo ao diretório de exportação, ou absoluto

	MaskDocuments bool
	CreateBackup  bool
	Windows1252   bool // só CSV
}

// ExportResult é o arquivo gerado.
type ExportResult struct {
	Path     string
	Receipts int
	Total    decimal.Decimal
}

// ExportService define a interface para o serviço de exportação.
type ExportService interface {
	// ExportReceipts percorre todas as páginas da listagem e grava o arquivo.
	ExportReceipts(ctx context.Context, req ExportRequest) (*ExportResult, error)
}

// exportServiceImpl é a implementação de ExportService.
type exportServiceImpl struct {
	api             *apiclient.Client
	exportDir       string
	auditLogService AuditLogService
}

// NewExportService cria uma nova instância de ExportService.
func NewExportService(api *apiclient.Client, exportDir string, auditLogService AuditLogService) ExportService {
	if api == nil {
		appLogger.Fatalf("Cliente da API não pode ser nil para NewExportService")
	}
	return &exportServiceImpl{api: api, exportDir: exportDir, auditLogService: auditLogService}
}

func (s *exportServiceImpl) ExportReceipts(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	format := ExportFormat(strings.ToLower(string(req.Format)))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "formato de exportação não suportado: '%s'", req.Format)
	}

	ctx, requestID := ensureRequestID(ctx)
	receipts, err := s.fetchAll(ctx, req.Search, req.FarmID)
	if err != nil {
		return nil, err
	}

	table, total := receiptTable(receipts)
	opts := &utils.ExportOptions{CreateBackup: req.CreateBackup, Windows1252: req.Windows1252}
	if req.MaskDocuments {
		opts.MaskColumns = []string{ColRecipientDocument, ColPayerDocument}
	}

	var path string
	switch format {
	case FormatXLSX:
		path, err = utils.ExportToXLSX([]*utils.Table{table, summaryTable(receipts)}, req.OutputPath, s.exportDir, opts)
	default:
		path, err = utils.ExportToCSV(table, req.OutputPath, s.exportDir, opts)
	}
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionExport,
		Description: fmt.Sprintf("%d recibos exportados para %s.", len(receipts), path),
		Severity:    "INFO",
		EntityType:  models.EntityExport,
		RequestID:   &requestID,
		Metadata: models.JSONMetadata{
			"formato":    string(format),
			"fazenda_id": req.FarmID,
			"busca":      utils.BuildQuery(req.Search, 1, 0).Search,
			"mascarado":  req.MaskDocuments,
		},
	})
	return &ExportResult{Path: path, Receipts: len(receipts), Total: total}, nil
}

// fetchAll busca a primeira página e, com o total informado pelo servidor,
// as demais em paralelo (no máximo exportWorkers ao mesmo tempo).
// Não usa o cache: a exportação deve refletir o estado atual.
func (s *exportServiceImpl) fetchAll(ctx context.Context, search string, farmID uint64) ([]models.Receipt, error) {
	first, err := s.api.ListReceipts(ctx, utils.BuildQuery(search, 1, farmID))
	if err != nil {
		return nil, appErrors.WrapErrorf(err, "falha ao buscar página 1 dos recibos")
	}
	totalPages := first.TotalPages
	if totalPages > maxExportPages {
		appLogger.Warnf("Exportação limitada a %d de %d páginas", maxExportPages, totalPages)
		totalPages = maxExportPages
	}
	if totalPages <= 1 || len(first.Data) == 0 {
		return first.Data, nil
	}

	pages := make([][]models.Receipt, totalPages)
	pages[0] = first.Data

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportWorkers)
	for page := 2; page <= totalPages; page++ {
		page := page
		g.Go(func() error {
			resp, err := s.api.ListReceipts(gctx, utils.BuildQuery(search, page, farmID))
			if err != nil {
				return appErrors.WrapErrorf(err, "falha ao buscar página %d dos recibos", page)
			}
			pages[page-1] = resp.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]models.Receipt, 0, max(first.TotalRecords, 0))
	for _, data := range pages {
		all = append(all, data...)
	}
	return all, nil
}

func receiptTable(receipts []models.Receipt) (*utils.Table, decimal.Decimal) {
	total := decimal.Zero
	rows := make([][]string, 0, len(receipts))
	for _, r := range receipts {
		total = total.Add(r.Value)
		rows = append(rows, []string{
			strconv.Itoa(r.Number),
			r.Farm.Name,
			r.Date.BR(),
			r.Value.StringFixed(2),
			r.RecipientName,
			utils.FormatDocument(r.RecipientDocument),
			r.PayerName,
			utils.FormatDocument(r.PayerDocument),
			r.Historic,
		})
	}
	return &utils.Table{
		SheetName:     "Recibos",
		Headers:       receiptHeaders,
		Rows:          rows,
		AmountColumns: []int{receiptValueColumn},
	}, total
}

// summaryTable totaliza os recibos por fazenda (aba extra do XLSX).
func summaryTable(receipts []models.Receipt) *utils.Table {
	type farmTotal struct {
		name  string
		count int
		sum   decimal.Decimal
	}
	byFarm := map[uint64]*farmTotal{}
	for _, r := range receipts {
		ft, ok := byFarm[r.Farm.ID]
		if !ok {
			ft = &farmTotal{name: r.Farm.Name, sum: decimal.Zero}
			byFarm[r.Farm.ID] = ft
		}
		ft.count++
		ft.sum = ft.sum.Add(r.Value)
	}

	ids := make([]uint64, 0, len(byFarm))
	for id := range byFarm {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		ft := byFarm[id]
		rows = append(rows, []string{ft.name, strconv.Itoa(ft.count), ft.sum.StringFixed(2)})
	}
	return &utils.Table{
		SheetName:     "Resumo",
		Headers:       []string{"Fazenda", "Recibos", "Total"},
		Rows:          rows,
		AmountColumns: []int{2},
	}
}
