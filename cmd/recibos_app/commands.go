package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/forms"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/services"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// Códigos de saída.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2 // uso incorreto ou dados inválidos
)

const deleteConfirmation = "Certeza que deseja deletar esse item?"

// app reúne os serviços e a entrada/saída usados pelos comandos.
type app struct {
	farms    services.FarmService
	receipts services.ReceiptService
	export   services.ExportService
	audit    services.AuditLogService

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	// width é a largura do terminal, usada para cortar textos longos. 0 = sem limite.
	width int
}

type command struct {
	name    string
	summary string
	run     func(a *app, ctx context.Context, args []string) int
}

var commands = []command{
	{"fazendas", "lista as fazendas (-busca)", (*app).listFarms},
	{"fazenda-nova", "cria uma fazenda, opcionalmente copiando recibos de outra", (*app).createFarm},
	{"fazenda-editar", "edita uma fazenda (-id)", (*app).editFarm},
	{"fazenda-excluir", "exclui uma fazenda (-id, -sim)", (*app).deleteFarm},
	{"recibos", "lista os recibos (-busca, -fazenda, -pagina)", (*app).listReceipts},
	{"recibo-novo", "cria um recibo", (*app).createReceipt},
	{"recibo-editar", "edita um recibo (-id)", (*app).editReceipt},
	{"recibo-excluir", "exclui um recibo (-id, -sim)", (*app).deleteReceipt},
	{"imprimir", "mostra a URL do relatório (-recibo, -fazenda, -listagem)", (*app).printReport},
	{"exportar", "exporta os recibos para CSV ou XLSX", (*app).exportReceipts},
	{"auditoria", "mostra a trilha de auditoria local", (*app).listAudit},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Uso: recibos_app <comando> [opções]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Comandos:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'recibos_app <comando> -h' para ver as opções de cada comando.")
}

func (a *app) dispatch(ctx context.Context, name string, args []string) int {
	switch name {
	case "ajuda", "help", "-h", "--help":
		printUsage(a.out)
		return exitOK
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(a, ctx, args)
		}
	}
	fmt.Fprintf(a.errOut, "Comando desconhecido: %s\n\n", name)
	printUsage(a.errOut)
	return exitUsage
}

// --- Fazendas ---

func (a *app) listFarms(ctx context.Context, args []string) int {
	fs := a.flagSet("fazendas")
	search := fs.String("busca", "", "filtra pelo nome da fazenda")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	farms, err := a.farms.ListFarms(ctx, *search)
	if err != nil {
		return a.fail(err)
	}
	if len(farms) == 0 {
		fmt.Fprintln(a.out, "Nenhuma fazenda encontrada.")
		return exitOK
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNOME\tPAGADOR\tDOCUMENTO")
	for _, f := range farms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", f.ID, a.clip(f.Name), a.clip(f.PayerName), utils.FormatDocument(f.PayerDocument))
	}
	_ = tw.Flush()
	return exitOK
}

func (a *app) createFarm(ctx context.Context, args []string) int {
	fs := a.flagSet("fazenda-nova")
	name := fs.String("nome", "", "nome da fazenda")
	payer := fs.String("pagador", "", "nome do pagador")
	payerAddress := fs.String("pagador-endereco", "", "endereço do pagador")
	payerDocument := fs.String("pagador-documento", "", "CPF ou CNPJ do pagador")
	copyReceipts := fs.Bool("copiar", false, "copiar recibos de outra fazenda")
	origin := fs.Uint64("copiar-de", 0, "id da fazenda de origem dos recibos")
	receiptsDate := fs.String("data-recibos", "", "copiar recibos a partir desta data (AAAA-MM-DD ou DD/MM/AAAA)")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	form := forms.NewFarmForm()
	form.Name = *name
	form.PayerName = *payer
	form.PayerAddress = *payerAddress
	form.PayerDocument = *payerDocument
	form.SetCopyReceipts(*copyReceipts || *origin != 0)
	form.OriginFarmID = *origin
	form.ReceiptsDate = *receiptsDate

	farm, err := a.farms.CreateFarm(ctx, form)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Fazenda criada: %d - %s\n", farm.ID, farm.Name)
	return exitOK
}

func (a *app) editFarm(ctx context.Context, args []string) int {
	fs := a.flagSet("fazenda-editar")
	id := fs.Uint64("id", 0, "id da fazenda")
	name := fs.String("nome", "", "novo nome")
	payer := fs.String("pagador", "", "novo nome do pagador")
	payerAddress := fs.String("pagador-endereco", "", "novo endereço do pagador")
	payerDocument := fs.String("pagador-documento", "", "novo CPF ou CNPJ do pagador (vazio apaga)")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if *id == 0 {
		return a.usageError(fs, "informe -id")
	}

	farm, err := a.farms.GetFarm(ctx, *id)
	if err != nil {
		return a.fail(err)
	}
	form := forms.FarmEditFormFrom(*farm)
	set := visited(fs)
	if set["nome"] {
		form.Name = *name
	}
	if set["pagador"] {
		form.PayerName = *payer
	}
	if set["pagador-endereco"] {
		form.PayerAddress = *payerAddress
	}
	if set["pagador-documento"] {
		form.PayerDocument = *payerDocument
	}

	updated, err := a.farms.UpdateFarm(ctx, form)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Fazenda atualizada: %d - %s\n", updated.ID, updated.Name)
	return exitOK
}

func (a *app) deleteFarm(ctx context.Context, args []string) int {
	fs := a.flagSet("fazenda-excluir")
	id := fs.Uint64("id", 0, "id da fazenda")
	yes := fs.Bool("sim", false, "não pedir confirmação")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if *id == 0 {
		return a.usageError(fs, "informe -id")
	}
	if !a.confirm(*yes) {
		fmt.Fprintln(a.out, "Exclusão cancelada.")
		return exitOK
	}
	if err := a.farms.DeleteFarm(ctx, *id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Fazenda %d excluída.\n", *id)
	return exitOK
}

// --- Recibos ---

func (a *app) listReceipts(ctx context.Context, args []string) int {
	fs := a.flagSet("recibos")
	search := fs.String("busca", "", "filtra pelo nome do beneficiário ou pagador")
	farmID := fs.Uint64("fazenda", 0, "id da fazenda (0 = todas)")
	page := fs.Int("pagina", 1, "página")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	q := utils.NewListQuery().WithSearch(*search).WithFarm(*farmID).WithPage(*page)
	list, err := a.receipts.ListReceipts(ctx, q)
	if err != nil {
		return a.fail(err)
	}
	if len(list.Receipts) > 0 {
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNº\tFAZENDA\tDATA\tVALOR\tBENEFICIÁRIO\tPAGADOR")
		for _, r := range list.Receipts {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Number, a.clip(r.Farm.Name), r.Date.BR(), utils.FormatBRL(r.Value),
				a.clip(r.RecipientName), a.clip(r.PayerName))
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(a.out, formatPageBar(list.Pages))
	return exitOK
}

// receiptFlags são as opções comuns a recibo-novo e recibo-editar.
type receiptFlags struct {
	farmID            *uint64
	date              *string
	value             *string
	historic          *string
	recipientName     *string
	recipientAddress  *string
	recipientDocument *string
	payerName         *string
	payerAddress      *string
	payerDocument     *string
	print             *bool
}

func bindReceiptFlags(fs *flag.FlagSet) *receiptFlags {
	return &receiptFlags{
		farmID:            fs.Uint64("fazenda", 0, "id da fazenda"),
		date:              fs.String("data", "", "data do recibo (AAAA-MM-DD ou DD/MM/AAAA)"),
		value:             fs.String("valor", "", "valor (ex: 1.234,56)"),
		historic:          fs.String("historico", "", "histórico"),
		recipientName:     fs.String("beneficiario", "", "nome do beneficiário"),
		recipientAddress:  fs.String("beneficiario-endereco", "", "endereço do beneficiário"),
		recipientDocument: fs.String("beneficiario-documento", "", "CPF ou CNPJ do beneficiário"),
		payerName:         fs.String("pagador", "", "nome do pagador (padrão: o da fazenda)"),
		payerAddress:      fs.String("pagador-endereco", "", "endereço do pagador"),
		payerDocument:     fs.String("pagador-documento", "", "CPF ou CNPJ do pagador"),
		print:             fs.Bool("imprimir", false, "mostrar a URL de impressão após salvar"),
	}
}

// apply copia para o formulário apenas as opções informadas. Trocar a
// fazenda preenche de novo os dados do pagador com os dela.
func (rf *receiptFlags) apply(ctx context.Context, a *app, fs *flag.FlagSet, form *forms.ReceiptForm) error {
	set := visited(fs)
	if set["fazenda"] && *rf.farmID != form.FarmID {
		if *rf.farmID == 0 {
			form.FarmID, form.FarmName = 0, ""
		} else {
			farm, err := a.farms.GetFarm(ctx, *rf.farmID)
			if err != nil {
				return fmt.Errorf("fazenda %d: %w", *rf.farmID, err)
			}
			form.SelectFarm(*farm)
		}
	}
	fields := []struct {
		flag string
		src  *string
		dst  *string
	}{
		{"data", rf.date, &form.Date},
		{"valor", rf.value, &form.Value},
		{"historico", rf.historic, &form.Historic},
		{"beneficiario", rf.recipientName, &form.RecipientName},
		{"beneficiario-endereco", rf.recipientAddress, &form.RecipientAddress},
		{"beneficiario-documento", rf.recipientDocument, &form.RecipientDocument},
		{"pagador", rf.payerName, &form.PayerName},
		{"pagador-endereco", rf.payerAddress, &form.PayerAddress},
		{"pagador-documento", rf.payerDocument, &form.PayerDocument},
	}
	for _, f := range fields {
		if set[f.flag] {
			*f.dst = *f.src
		}
	}
	form.AlreadyPrint = *rf.print
	return nil
}

func (a *app) createReceipt(ctx context.Context, args []string) int {
	fs := a.flagSet("recibo-novo")
	rf := bindReceiptFlags(fs)
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	form, err := a.receipts.NewReceiptForm(ctx, *rf.farmID)
	if err != nil {
		return a.fail(fmt.Errorf("fazenda %d: %w", *rf.farmID, err))
	}
	if err := rf.apply(ctx, a, fs, form); err != nil {
		return a.fail(err)
	}

	res, err := a.receipts.CreateReceipt(ctx, form)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Recibo nº %d criado (ID %d): %s\n", res.Receipt.Number, res.Receipt.ID, utils.FormatBRL(res.Receipt.Value))
	if res.PrintURL != "" {
		fmt.Fprintf(a.out, "Imprimir: %s\n", res.PrintURL)
	}
	return exitOK
}

func (a *app) editReceipt(ctx context.Context, args []string) int {
	fs := a.flagSet("recibo-editar")
	id := fs.Uint64("id", 0, "id do recibo")
	rf := bindReceiptFlags(fs)
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if *id == 0 {
		return a.usageError(fs, "informe -id")
	}

	form, err := a.receipts.EditReceiptForm(ctx, *id)
	if err != nil {
		return a.fail(err)
	}
	if err := rf.apply(ctx, a, fs, form); err != nil {
		return a.fail(err)
	}

	res, err := a.receipts.UpdateReceipt(ctx, form)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Recibo nº %d atualizado (ID %d): %s\n", res.Receipt.Number, res.Receipt.ID, utils.FormatBRL(res.Receipt.Value))
	if res.PrintURL != "" {
		fmt.Fprintf(a.out, "Imprimir: %s\n", res.PrintURL)
	}
	return exitOK
}

func (a *app) deleteReceipt(ctx context.Context, args []string) int {
	fs := a.flagSet("recibo-excluir")
	id := fs.Uint64("id", 0, "id do recibo")
	yes := fs.Bool("sim", false, "não pedir confirmação")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}
	if *id == 0 {
		return a.usageError(fs, "informe -id")
	}
	if !a.confirm(*yes) {
		fmt.Fprintln(a.out, "Exclusão cancelada.")
		return exitOK
	}
	if err := a.receipts.DeleteReceipt(ctx, *id); err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Recibo %d excluído.\n", *id)
	return exitOK
}

func (a *app) printReport(_ context.Context, args []string) int {
	fs := a.flagSet("imprimir")
	receiptID := fs.Uint64("recibo", 0, "id do recibo a imprimir")
	farmID := fs.Uint64("fazenda", 0, "id da fazenda (0 = todas)")
	listing := fs.Bool("listagem", false, "imprimir a listagem em vez dos recibos")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	var url string
	switch {
	case *receiptID != 0:
		url = a.receipts.ReceiptPrintURL(*receiptID)
	case *listing:
		url = a.receipts.ListingPrintURL(*farmID)
	default:
		url = a.receipts.FarmReceiptsPrintURL(*farmID)
	}
	fmt.Fprintln(a.out, url)
	return exitOK
}

// --- Exportação e auditoria ---

func (a *app) exportReceipts(ctx context.Context, args []string) int {
	fs := a.flagSet("exportar")
	format := fs.String("formato", "csv", "csv ou xlsx")
	output := fs.String("saida", "", "arquivo de saída (relativo ao diretório de exportação)")
	search := fs.String("busca", "", "filtra pelo nome do beneficiário ou pagador")
	farmID := fs.Uint64("fazenda", 0, "id da fazenda (0 = todas)")
	mask := fs.Bool("mascarar", false, "mascarar CPF/CNPJ")
	backup := fs.Bool("backup", false, "guardar o arquivo existente como backup")
	legacy := fs.Bool("windows1252", false, "gravar o CSV em Windows-1252")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	res, err := a.export.ExportReceipts(ctx, services.ExportRequest{
		Search:        *search,
		FarmID:        *farmID,
		Format:        services.ExportFormat(*format),
		OutputPath:    *output,
		MaskDocuments: *mask,
		CreateBackup:  *backup,
		Windows1252:   *legacy,
	})
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "%d recibos exportados para %s (total %s)\n", res.Receipts, res.Path, utils.FormatBRL(res.Total))
	return exitOK
}

func (a *app) listAudit(ctx context.Context, args []string) int {
	fs := a.flagSet("auditoria")
	page := fs.Int("pagina", 1, "página")
	size := fs.Int("tamanho", 0, "registros por página")
	action := fs.String("acao", "", "filtra pela ação (ex: RECIBO_CRIAR)")
	severity := fs.String("severidade", "", "filtra pela severidade")
	entity := fs.String("entidade", "", "FAZENDA, RECIBO ou EXPORTACAO")
	entityID := fs.Uint64("entidade-id", 0, "id da entidade")
	since := fs.String("desde", "", "data inicial")
	until := fs.String("ate", "", "data final")
	if code, ok := a.parse(fs, args); !ok {
		return code
	}

	filter := models.AuditLogFilter{Action: *action, Severity: *severity, EntityType: strings.ToUpper(*entity)}
	if *entityID != 0 {
		filter.EntityID = entityID
	}
	for _, d := range []struct {
		raw string
		dst **time.Time
	}{{*since, &filter.Since}, {*until, &filter.Until}} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := models.ParseDate(d.raw)
		if err != nil {
			return a.usageError(fs, err.Error())
		}
		day := localDay(parsed)
		*d.dst = &day
	}

	result, err := a.audit.GetAuditLogs(ctx, filter, *page, *size)
	if err != nil {
		return a.fail(err)
	}
	if len(result.Entries) > 0 {
		tw := a.table()
		fmt.Fprintln(tw, "DATA/HORA\tAÇÃO\tSEVERIDADE\tENTIDADE\tDESCRIÇÃO")
		for _, e := range result.Entries {
			entityRef := e.EntityType
			if e.EntityID != nil {
				entityRef = fmt.Sprintf("%s %d", e.EntityType, *e.EntityID)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("02/01/2006 15:04:05"), e.Action, e.Severity, entityRef, a.clip(e.Description))
		}
		_ = tw.Flush()
	}
	fmt.Fprintln(a.out, formatPageBar(result.Pages))
	return exitOK
}

// --- Auxiliares ---

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parse retorna ok=false quando o comando deve terminar com o código devolvido.
func (a *app) parse(fs *flag.FlagSet, args []string) (int, bool) {
	err := fs.Parse(args)
	switch {
	case err == nil:
		if fs.NArg() > 0 {
			return a.usageError(fs, fmt.Sprintf("argumentos inesperados: %s", strings.Join(fs.Args(), " "))), false
		}
		return exitOK, true
	case errors.Is(err, flag.ErrHelp):
		return exitOK, false
	default:
		return exitUsage, false
	}
}

func (a *app) usageError(fs *flag.FlagSet, msg string) int {
	fmt.Fprintf(a.errOut, "%s: %s\n", fs.Name(), msg)
	fs.Usage()
	return exitUsage
}

// fail mostra o erro ao usuário e devolve o código de saída.
// Erros de validação listam a mensagem de cada campo.
func (a *app) fail(err error) int {
	var ve *appErrors.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(a.errOut, ve.Message)
		fields := make([]string, 0, len(ve.Fields))
		for f := range ve.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(a.errOut, "  %s: %s\n", fieldFlag(f), ve.Fields[f])
		}
		return exitUsage
	}

	appLogger.Errorf("Comando falhou: %v", err)
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		fmt.Fprintf(a.errOut, "Registro não encontrado: %v\n", err)
	case errors.Is(err, appErrors.ErrRemote):
		fmt.Fprintf(a.errOut, "Falha ao comunicar com a API: %v\n", err)
	case errors.Is(err, appErrors.ErrInvalidInput):
		fmt.Fprintf(a.errOut, "Dados inválidos: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(a.errOut, "Erro: %v\n", err)
	}
	return exitError
}

// fieldFlag traduz o campo do formulário para a opção correspondente.
func fieldFlag(field string) string {
	switch field {
	case forms.FieldName:
		return "-nome"
	case forms.FieldPayerName:
		return "-pagador"
	case forms.FieldPayerAddress:
		return "-pagador-endereco"
	case forms.FieldPayerDocument:
		return "-pagador-documento"
	case forms.FieldOriginFarmID:
		return "-copiar-de"
	case forms.FieldReceiptsDate:
		return "-data-recibos"
	case forms.FieldFarmID:
		return "-fazenda"
	case forms.FieldDate:
		return "-data"
	case forms.FieldValue:
		return "-valor"
	case forms.FieldHistoric:
		return "-historico"
	case forms.FieldRecipientName:
		return "-beneficiario"
	case forms.FieldRecipientAddress:
		return "-beneficiario-endereco"
	case forms.FieldRecipientDocument:
		return "-beneficiario-documento"
	}
	return field
}

func (a *app) confirm(skip bool) bool {
	if skip {
		return true
	}
	fmt.Fprintf(a.out, "%s [s/N] ", deleteConfirmation)
	line, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "sim", "y", "yes":
		return true
	}
	return false
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

// clip corta textos longos quando a largura do terminal é conhecida.
func (a *app) clip(s string) string {
	if a.width <= 0 {
		return s
	}
	limit := max(a.width/4, 12)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// localDay põe a data no fuso local: a tabela mostra horários locais, então
// "-ate 10/05" deve ir até 23:59 locais e não até 23:59 UTC.
func localDay(d models.Date) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// formatPageBar monta a linha de paginação: "Página 4 de 10 (95 registros): 1 2 3 [4] 5 6 … 10".
func formatPageBar(p utils.PageDescriptor) string {
	if p.TotalPages == 0 {
		return "Nenhum registro encontrado."
	}
	parts := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		switch {
		case it.Ellipsis:
			parts = append(parts, "…")
		case it.Number == p.CurrentPage:
			parts = append(parts, "["+strconv.Itoa(it.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(it.Number))
		}
	}
	return fmt.Sprintf("Página %d de %d (%d registros): %s", p.CurrentPage, p.TotalPages, p.TotalRecords, strings.Join(parts, " "))
}
