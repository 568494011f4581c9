package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2" // Para XLSX
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
)

// Table é uma planilha a exportar: cabeçalhos, linhas e o nome da aba (XLSX).
type Table struct {
	SheetName string
	Headers   []string
	Rows      [][]string
	// AmountColumns são os índices de colunas com valores monetários ("1234.56"),
	// gravados como número no XLSX.
	AmountColumns []int
}

// Validate verifica se todas as linhas têm o mesmo número de colunas do cabeçalho.
func (t *Table) Validate() error {
	if len(t.Headers) == 0 {
		return fmt.Errorf("%w: tabela sem cabeçalhos", appErrors.ErrInvalidInput)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Headers) {
			return fmt.Errorf("%w: linha %d tem %d colunas, esperado %d", appErrors.ErrInvalidInput, i+1, len(row), len(t.Headers))
		}
	}
	return nil
}

func (t *Table) isAmountColumn(col int) bool {
	for _, c := range t.AmountColumns {
		if c == col {
			return true
		}
	}
	return false
}

// ExportOptions contém opções para a exportação.
type ExportOptions struct {
	CreateBackup bool
	// MaskColumns lista cabeçalhos cujas células com CPF/CNPJ serão mascaradas.
	MaskColumns []string
	// Windows1252 grava o CSV em Windows-1252 em vez de UTF-8, para versões
	// antigas do Excel que não reconhecem UTF-8 sem BOM.
	Windows1252 bool
}

// MaskDocument esconde os dígitos centrais de um CPF/CNPJ formatado.
// Valores que não são documentos válidos são retornados sem alteração.
func MaskDocument(s string) string {
	doc, err := ValidateDocument(s)
	if err != nil || doc.Absent() {
		return s
	}
	if doc.Kind == DocumentCPF {
		return "***." + doc.Digits[3:6] + "." + doc.Digits[6:9] + "-**"
	}
	return "**." + doc.Digits[2:5] + "." + doc.Digits[5:8] + "/****-**"
}

func maskRows(headers []string, rows [][]string, maskColumns []string) [][]string {
	if len(maskColumns) == 0 || len(rows) == 0 {
		return rows
	}

	cols := make(map[int]bool)
	for _, name := range maskColumns {
		found := false
		for i, h := range headers {
			if strings.EqualFold(h, name) {
				cols[i] = true
				found = true
				break
			}
		}
		if !found {
			appLogger.Warnf("Coluna para mascarar '%s' não encontrada nos cabeçalhos. Ignorando.", name)
		}
	}
	if len(cols) == 0 {
		return rows
	}

	masked := make([][]string, len(rows))
	for i, row := range rows {
		newRow := make([]string, len(row))
		copy(newRow, row)
		for idx := range cols {
			if idx < len(newRow) {
				newRow[idx] = MaskDocument(newRow[idx])
			}
		}
		masked[i] = newRow
	}
	return masked
}

// ExportToCSV grava a tabela em CSV separado por ponto e vírgula (padrão do Excel em pt-BR).
// Caminhos relativos são resolvidos a partir de exportDir.
func ExportToCSV(table *Table, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if err := table.Validate(); err != nil {
		return "", err
	}
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath, err := prepareOutputPath(outputPath, exportDir, ".csv", opts.CreateBackup)
	if err != nil {
		return "", err
	}

	file, err := os.Create(finalPath)
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar arquivo CSV '%s': %v", finalPath, err)
	}
	defer file.Close()

	var out io.Writer = file
	var encoder *transform.Writer
	if opts.Windows1252 {
		encoder = transform.NewWriter(file, charmap.Windows1252.NewEncoder())
		out = encoder
	}
	writer := csv.NewWriter(out)
	writer.Comma = ';'

	if err := writer.Write(table.Headers); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalhos CSV: %v", err)
	}
	rows := maskRows(table.Headers, table.Rows, opts.MaskColumns)
	if err := writer.WriteAll(rows); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever linhas CSV: %v", err)
	}
	if encoder != nil {
		// Close descarrega o que o codificador ainda guarda; não fecha o arquivo.
		if err := encoder.Close(); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao converter CSV para Windows-1252: %v", err)
		}
	}

	appLogger.Infof("Dados exportados para CSV: %s (%d linhas)", finalPath, len(rows))
	return finalPath, nil
}

// ExportToXLSX grava uma aba por tabela em um arquivo XLSX.
func ExportToXLSX(tables []*Table, outputPath, exportDir string, opts *ExportOptions) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("%w: nenhuma tabela para exportar", appErrors.ErrInvalidInput)
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return "", err
		}
	}
	if opts == nil {
		opts = &ExportOptions{}
	}
	finalPath, err := prepareOutputPath(outputPath, exportDir, ".xlsx", opts.CreateBackup)
	if err != nil {
		return "", err
	}

	xlsx := excelize.NewFile()
	defer func() {
		if err := xlsx.Close(); err != nil {
			appLogger.Errorf("Erro ao fechar arquivo XLSX: %v", err)
		}
	}()

	headerStyle, err := xlsx.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1A659E"}, Pattern: 1},
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo do cabeçalho: %v", err)
	}
	amountFmt := "#,##0.00"
	amountStyle, err := xlsx.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt})
	if err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar estilo de valores: %v", err)
	}

	for i, t := range tables {
		sheet := t.SheetName
		if sheet == "" {
			sheet = fmt.Sprintf("Planilha%d", i+1)
		}
		// Excelize cria "Sheet1" por padrão; a primeira tabela apenas a renomeia.
		if i == 0 {
			if err := xlsx.SetSheetName(xlsx.GetSheetName(0), sheet); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao nomear planilha '%s': %v", sheet, err)
			}
		} else if _, err := xlsx.NewSheet(sheet); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar planilha '%s': %v", sheet, err)
		}

		for col, h := range t.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := xlsx.SetCellValue(sheet, cell, h); err != nil {
				return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever cabeçalho: %v", err)
			}
		}
		lastHeader, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		_ = xlsx.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

		rows := maskRows(t.Headers, t.Rows, opts.MaskColumns)
		for r, row := range rows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2) // linha 1 é o cabeçalho
				if t.isAmountColumn(col) {
					if d, errConv := decimal.NewFromString(value); errConv == nil {
						f, _ := d.Float64()
						_ = xlsx.SetCellValue(sheet, cell, f)
						_ = xlsx.SetCellStyle(sheet, cell, cell, amountStyle)
						continue
					}
				}
				if err := xlsx.SetCellStr(sheet, cell, value); err != nil {
					return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao escrever célula %s: %v", cell, err)
				}
			}
		}

		for col, h := range t.Headers {
			name, _ := excelize.ColumnNumberToName(col + 1)
			_ = xlsx.SetColWidth(sheet, name, name, columnWidth(h, rows, col))
		}
	}
	xlsx.SetActiveSheet(0)

	if err := xlsx.SaveAs(finalPath); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao salvar arquivo XLSX '%s': %v", finalPath, err)
	}
	appLogger.Infof("Dados exportados para XLSX: %s (%d abas)", finalPath, len(tables))
	return finalPath, nil
}

// columnWidth estima a largura da coluna pelo maior conteúdo, limitada a [10, 60].
func columnWidth(header string, rows [][]string, col int) float64 {
	width := len([]rune(header))
	for _, row := range rows {
		if col < len(row) {
			width = max(width, len([]rune(row[col])))
		}
	}
	return float64(min(max(width+2, 10), 60))
}

// --- Funções Utilitárias Internas ---

// prepareOutputPath resolve o caminho final, cria o diretório pai e, se pedido,
// move um arquivo existente para um backup com timestamp.
func prepareOutputPath(path, defaultDir, defaultExt string, backup bool) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = "exportacao_" + time.Now().Format("20060102_150405")
	}
	p := filepath.Clean(path)
	if !filepath.IsAbs(p) {
		absDefaultDir, err := filepath.Abs(defaultDir)
		if err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "diretório de exportação inválido '%s': %v", defaultDir, err)
		}
		p = filepath.Join(absDefaultDir, p)
	}
	if filepath.Ext(p) == "" {
		p += defaultExt
	}

	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return "", appErrors.WrapErrorf(appErrors.ErrExport, "não foi possível criar diretório '%s': %v", filepath.Dir(p), err)
	}

	if backup && fileExists(p) {
		if err := createBackup(p); err != nil {
			return "", appErrors.WrapErrorf(appErrors.ErrExport, "falha ao criar backup de '%s': %v", p, err)
		}
	}
	return p, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createBackup(path string) error {
	timestamp := time.Now().Format("20060102_150405")
	ext := filepath.Ext(path)
	backupPath := fmt.Sprintf("%s_backup_%s%s", strings.TrimSuffix(path, ext), timestamp, ext)

	if err := os.Rename(path, backupPath); err != nil {
		return err
	}
	appLogger.Infof("Backup criado: %s", backupPath)
	return nil
}
