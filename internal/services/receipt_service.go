package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/apiclient"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/cache"
	appErrors "github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/forms"
	"github.com/Dukorsa/APP_RECIBOS_GO/internal/utils"
)

// ReceiptList é o resultado de uma listagem: o que foi pedido, a página de
// recibos e a barra de paginação derivada do total do servidor.
type ReceiptList struct {
	Query      utils.ListQuery
	Descriptor utils.RequestDescriptor
	Receipts   []models.Receipt
	Pages      utils.PageDescriptor
}

// SaveResult é o recibo salvo. PrintURL é preenchida quando o formulário
// pediu impressão logo após salvar.
type SaveResult struct {
	Receipt  *models.Receipt
	PrintURL string
}

// ReceiptService define a interface para o serviço de recibos.
type ReceiptService interface {
	ListReceipts(ctx context.Context, query utils.ListQuery) (*ReceiptList, error)
	GetReceipt(ctx context.Context, id uint64) (*models.Receipt, error)

	// NewReceiptForm devolve um formulário com a data de hoje e, se farmID
	// não for 0, com a fazenda e os dados do pagador dela já preenchidos.
	NewReceiptForm(ctx context.Context, farmID uint64) (*forms.ReceiptForm, error)
	// EditReceiptForm carrega o recibo no formulário de edição.
	EditReceiptForm(ctx context.Context, id uint64) (*forms.ReceiptForm, error)

	CreateReceipt(ctx context.Context, form *forms.ReceiptForm) (*SaveResult, error)
	UpdateReceipt(ctx context.Context, form *forms.ReceiptForm) (*SaveResult, error)
	DeleteReceipt(ctx context.Context, id uint64) error

	ReceiptPrintURL(id uint64) string
	FarmReceiptsPrintURL(farmID uint64) string
	ListingPrintURL(farmID uint64) string
}

// receiptServiceImpl é a implementação de ReceiptService.
type receiptServiceImpl struct {
	api             *apiclient.Client
	cache           *cache.QueryCache
	farmService     FarmService
	auditLogService AuditLogService
	now             func() time.Time
}

// NewReceiptService cria uma nova instância de ReceiptService.
func NewReceiptService(
	api *apiclient.Client,
	queryCache *cache.QueryCache,
	farmService FarmService,
	auditLogService AuditLogService,
) ReceiptService {
	if api == nil || farmService == nil {
		appLogger.Fatalf("Dependências nulas fornecidas para NewReceiptService")
	}
	return &receiptServiceImpl{
		api:             api,
		cache:           queryCache,
		farmService:     farmService,
		auditLogService: auditLogService,
		now:             time.Now,
	}
}

func (s *receiptServiceImpl) ListReceipts(ctx context.Context, query utils.ListQuery) (*ReceiptList, error) {
	d := query.Descriptor()
	key := cache.Key(cache.ResourceReceipts, d.Key())
	page, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.ReceiptPage, error) {
		return s.api.ListReceipts(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	query.Page = d.PageNumber
	return &ReceiptList{
		Query:      query,
		Descriptor: d,
		Receipts:   slices.Clone(page.Data),
		Pages:      utils.DerivePages(page.TotalRecords, page.PageSize, d.PageNumber),
	}, nil
}

func (s *receiptServiceImpl) GetReceipt(ctx context.Context, id uint64) (*models.Receipt, error) {
	key := cache.Key(cache.ResourceReceipt, strconv.FormatUint(id, 10))
	cached, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (*models.Receipt, error) {
		return s.api.GetReceipt(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	r := *cached
	return &r, nil
}

func (s *receiptServiceImpl) NewReceiptForm(ctx context.Context, farmID uint64) (*forms.ReceiptForm, error) {
	form := forms.NewReceiptForm(s.now())
	if farmID == 0 {
		return form, nil
	}
	farm, err := s.farmService.GetFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}
	form.SelectFarm(*farm)
	return form, nil
}

func (s *receiptServiceImpl) EditReceiptForm(ctx context.Context, id uint64) (*forms.ReceiptForm, error) {
	r, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	return forms.ReceiptFormFrom(*r), nil
}

func (s *receiptServiceImpl) CreateReceipt(ctx context.Context, form *forms.ReceiptForm) (*SaveResult, error) {
	in, err := form.Validate()
	if err != nil {
		appLogger.Warnf("Dados de criação de recibo inválidos: %v", err)
		return nil, err
	}

	ctx, requestID := ensureRequestID(ctx)
	saved, err := s.api.CreateReceipt(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	appLogger.Infof("Recibo %d criado (ID %d, fazenda %d)", saved.Number, saved.ID, in.FarmID)

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionReceiptCreate,
		Description: fmt.Sprintf("Recibo nº %d de %s para %s criado.", saved.Number, utils.FormatBRL(in.Value), in.RecipientName),
		Severity:    "INFO",
		EntityType:  models.EntityReceipt,
		EntityID:    entityID(saved.ID),
		RequestID:   &requestID,
		Metadata:    receiptMetadata(in),
	})
	return s.saveResult(saved, in.AlreadyPrint), nil
}

func (s *receiptServiceImpl) UpdateReceipt(ctx context.Context, form *forms.ReceiptForm) (*SaveResult, error) {
	in, err := form.Validate()
	if err != nil {
		appLogger.Warnf("Dados de edição do recibo ID %d inválidos: %v", form.ID, err)
		return nil, err
	}
	if in.ID == 0 {
		return nil, appErrors.WrapErrorf(appErrors.ErrInvalidInput, "recibo sem id não pode ser editado")
	}

	// A API exige o nome atual da fazenda junto com o id.
	farmName := form.FarmName
	if farmName == "" {
		farm, err := s.farmService.GetFarm(ctx, in.FarmID)
		if err != nil {
			return nil, err
		}
		farmName = farm.Name
	}

	ctx, requestID := ensureRequestID(ctx)
	if err := s.api.UpdateReceipt(ctx, in, farmName); err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionReceiptUpdate,
		Description: fmt.Sprintf("Recibo nº %d (ID %d) atualizado.", in.Number, in.ID),
		Severity:    "INFO",
		EntityType:  models.EntityReceipt,
		EntityID:    uint64Ptr(in.ID),
		RequestID:   &requestID,
		Metadata:    receiptMetadata(in),
	})
	return s.saveResult(receiptFromInput(in, farmName), in.AlreadyPrint), nil
}

func (s *receiptServiceImpl) DeleteReceipt(ctx context.Context, id uint64) error {
	ctx, requestID := ensureRequestID(ctx)
	if err := s.api.DeleteReceipt(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()

	recordAudit(ctx, s.auditLogService, models.AuditLogEntry{
		Action:      ActionReceiptDelete,
		Description: fmt.Sprintf("Recibo ID %d excluído.", id),
		Severity:    "WARNING",
		EntityType:  models.EntityReceipt,
		EntityID:    uint64Ptr(id),
		RequestID:   &requestID,
	})
	return nil
}

func (s *receiptServiceImpl) ReceiptPrintURL(id uint64) string {
	return s.api.ReceiptReportURL(id)
}

func (s *receiptServiceImpl) FarmReceiptsPrintURL(farmID uint64) string {
	return s.api.FarmReceiptsReportURL(farmID)
}

func (s *receiptServiceImpl) ListingPrintURL(farmID uint64) string {
	return s.api.ListingReportURL(farmID)
}

func (s *receiptServiceImpl) saveResult(r *models.Receipt, printAfterSave bool) *SaveResult {
	res := &SaveResult{Receipt: r}
	if printAfterSave && r.ID != 0 {
		res.PrintURL = s.api.ReceiptReportURL(r.ID)
	}
	return res
}

func receiptFromInput(in models.ReceiptInput, farmName string) *models.Receipt {
	return &models.Receipt{
		ID:                in.ID,
		Farm:              models.Farm{ID: in.FarmID, Name: farmName},
		Number:            in.Number,
		Date:              in.Date,
		Value:             in.Value,
		Historic:          in.Historic,
		RecipientName:     in.RecipientName,
		RecipientAddress:  in.RecipientAddress,
		RecipientDocument: in.RecipientDocument,
		PayerName:         in.PayerName,
		PayerAddress:      in.PayerAddress,
		PayerDocument:     in.PayerDocument,
	}
}

// receiptMetadata não inclui documentos: a trilha fica em texto no banco local.
func receiptMetadata(in models.ReceiptInput) models.JSONMetadata {
	return models.JSONMetadata{
		"fazenda_id": in.FarmID,
		"data":       in.Date.String(),
		"valor":      in.Value.StringFixed(2),
	}
}
