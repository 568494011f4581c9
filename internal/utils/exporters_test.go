package utils

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
)

func sampleTable() *Table {
	return &Table{
		SheetName: "Recibos",
		Headers:   []string{"Número", "Valor", "Pagador Documento"},
		Rows: [][]string{
			{"1", "1234.56", "111.444.777-35"},
			{"2", "10.00", ""},
		},
		AmountColumns: []int{1},
	}
}

func TestMaskDocument(t *testing.T) {
	assert.Equal(t, "***.444.777-**", MaskDocument("111.444.777-35"))
	assert.Equal(t, "**.222.333/****-**", MaskDocument("11222333000181"))
	assert.Equal(t, "", MaskDocument(""))
	assert.Equal(t, "não é documento", MaskDocument("não é documento"))
}

func TestTableValidate(t *testing.T) {
	assert.ErrorIs(t, (&Table{}).Validate(), appErrors.ErrInvalidInput)

	bad := sampleTable()
	bad.Rows = append(bad.Rows, []string{"só uma coluna"})
	assert.ErrorIs(t, bad.Validate(), appErrors.ErrInvalidInput)

	assert.NoError(t, sampleTable().Validate())
}

func TestExportToCSV(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportToCSV(sampleTable(), "recibos", dir, &ExportOptions{MaskColumns: []string{"pagador documento"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "recibos.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Número", "Valor", "Pagador Documento"}, records[0])
	assert.Equal(t, []string{"1", "1234.56", "***.444.777-**"}, records[1])
	assert.Equal(t, []string{"2", "10.00", ""}, records[2])
}

func TestExportToCSV_Windows1252(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportToCSV(sampleTable(), "legado", dir, &ExportOptions{Windows1252: true})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// "Número" em Windows-1252: 'ú' ocupa um único byte (0xFA).
	assert.Equal(t, []byte{'N', 0xFA, 'm', 'e', 'r', 'o', ';'}, raw[:7])
	assert.NotContains(t, string(raw), "Número")
}

func TestExportToCSV_Backup(t *testing.T) {
	dir := t.TempDir()
	_, err := ExportToCSV(sampleTable(), "dup.csv", dir, nil)
	require.NoError(t, err)
	_, err = ExportToCSV(sampleTable(), "dup.csv", dir, &ExportOptions{CreateBackup: true})
	require.NoError(t, err)

	backups, err := filepath.Glob(filepath.Join(dir, "dup_backup_*.csv"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestExportToXLSX(t *testing.T) {
	dir := t.TempDir()
	second := &Table{SheetName: "Fazendas", Headers: []string{"Nome"}, Rows: [][]string{{"FAZENDA SOL"}}}

	path, err := ExportToXLSX([]*Table{sampleTable(), second}, "listagem", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Recibos", "Fazendas"}, f.GetSheetList())

	header, err := f.GetCellValue("Recibos", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Número", header)

	doc, err := f.GetCellValue("Recibos", "C2")
	require.NoError(t, err)
	assert.Equal(t, "111.444.777-35", doc)

	name, err := f.GetCellValue("Fazendas", "A2")
	require.NoError(t, err)
	assert.Equal(t, "FAZENDA SOL", name)
}

func TestExportToXLSX_NoTables(t *testing.T) {
	_, err := ExportToXLSX(nil, "x", t.TempDir(), nil)
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
}
