// Package apitest fornece uma API de fazendas/recibos em memória para testes.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/data/models"
)

// PageSize é o tamanho de página usado pela API falsa.
const PageSize = 10

// Request é uma requisição recebida, guardada para verificação nos testes.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	RequestID string
	Body      []byte
}

// receiptBody espelha o corpo enviado pelo cliente ("valor" numérico).
type receiptBody struct {
	ID                uint64          `json:"id"`
	Farm              models.FarmRef  `json:"fazenda"`
	Number            int             `json:"numero"`
	Date              models.Date     `json:"data"`
	Value             decimal.Decimal `json:"valor"`
	Historic          string          `json:"historico"`
	RecipientName     string          `json:"beneficiarioNome"`
	RecipientAddress  string          `json:"beneficiarioEndereco"`
	RecipientDocument string          `json:"beneficiarioDocumento"`
	PayerName         string          `json:"pagadorNome"`
	PayerAddress      string          `json:"pagadorEndereco"`
	PayerDocument     string          `json:"pagadorDocumento"`
}

// FakeAPI guarda fazendas e recibos em memória e responde como a API real.
type FakeAPI struct {
	Server *httptest.Server

	mu         sync.Mutex
	farms      map[uint64]models.Farm
	receipts   map[uint64]models.Receipt
	nextFarm   uint64
	nextRecibo uint64
	requests   []Request
	failStatus int
}

// New sobe o servidor. Chame Close ao final do teste.
func New() *FakeAPI {
	f := &FakeAPI{
		farms:      map[uint64]models.Farm{},
		receipts:   map[uint64]models.Receipt{},
		nextFarm:   1,
		nextRecibo: 1,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(f.record)

	r.Route("/api/fazenda", func(r chi.Router) {
		r.Get("/", f.listFarms)
		r.Post("/", f.createFarm)
		r.Put("/", f.updateFarm)
		r.Get("/{id}", f.getFarm)
		r.Delete("/{id}", f.deleteFarm)
	})
	r.Route("/api/recibo", func(r chi.Router) {
		r.Get("/", f.listReceipts)
		r.Post("/", f.createReceipt)
		r.Put("/", f.updateReceipt)
		r.Get("/{id}", f.getReceipt)
		r.Delete("/{id}", f.deleteReceipt)
	})

	f.Server = httptest.NewServer(r)
	return f
}

// URL é o endereço base do servidor.
func (f *FakeAPI) URL() string { return f.Server.URL }

// Close derruba o servidor.
func (f *FakeAPI) Close() { f.Server.Close() }

// FailNext faz a próxima requisição responder com status.
func (f *FakeAPI) FailNext(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

// Requests retorna as requisições recebidas até agora.
func (f *FakeAPI) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest retorna a última requisição recebida.
func (f *FakeAPI) LastRequest() Request {
	reqs := f.Requests()
	if len(reqs) == 0 {
		return Request{}
	}
	return reqs[len(reqs)-1]
}

// CountRequests conta as requisições com o método e caminho informados.
func (f *FakeAPI) CountRequests(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// AddFarm cadastra uma fazenda diretamente e retorna o id atribuído.
func (f *FakeAPI) AddFarm(farm models.Farm) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	farm.ID = f.nextFarm
	f.nextFarm++
	f.farms[farm.ID] = farm
	return farm.ID
}

// AddReceipt cadastra um recibo diretamente na fazenda informada.
func (f *FakeAPI) AddReceipt(farmID uint64, r models.Receipt) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertReceipt(farmID, r)
}

// Receipt retorna o recibo guardado, se existir.
func (f *FakeAPI) Receipt(id uint64) (models.Receipt, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	return r, ok
}

// Farm retorna a fazenda guardada, se existir.
func (f *FakeAPI) Farm(id uint64) (models.Farm, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	farm, ok := f.farms[id]
	return farm, ok
}

// insertReceipt exige f.mu travado. O número é sequencial por fazenda.
func (f *FakeAPI) insertReceipt(farmID uint64, r models.Receipt) uint64 {
	r.ID = f.nextRecibo
	f.nextRecibo++
	r.Farm = f.farms[farmID]
	number := 0
	for _, other := range f.receipts {
		if other.Farm.ID == farmID && other.Number > number {
			number = other.Number
		}
	}
	r.Number = number + 1
	f.receipts[r.ID] = r
	return r.ID
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		f.mu.Lock()
		f.requests = append(f.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.Query(),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		})
		status := f.failStatus
		f.failStatus = 0
		f.mu.Unlock()

		if status != 0 {
			http.Error(w, "falha simulada", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) listFarms(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("nome")
	f.mu.Lock()
	out := []models.Farm{}
	for _, farm := range f.farms {
		if search == "" || strings.Contains(farm.Name, search) {
			out = append(out, farm)
		}
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) getFarm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	farm, found := f.Farm(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, farm)
}

func (f *FakeAPI) createFarm(w http.ResponseWriter, r *http.Request) {
	var farm models.Farm
	if !decodeBody(w, r, &farm) {
		return
	}
	if farm.Name == "" {
		http.Error(w, "nome obrigatório", http.StatusBadRequest)
		return
	}
	id := f.AddFarm(farm)
	farm.ID = id

	q := r.URL.Query()
	if origin := q.Get("fazendaOrigemId"); origin != "" {
		originID, _ := strconv.ParseUint(origin, 10, 64)
		since, err := models.ParseDate(q.Get("dataRecibos"))
		if err != nil {
			http.Error(w, "dataRecibos inválida", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		var toCopy []models.Receipt
		for _, rec := range f.receipts {
			if rec.Farm.ID == originID && !rec.Date.Before(since.Time) {
				toCopy = append(toCopy, rec)
			}
		}
		sort.Slice(toCopy, func(i, j int) bool { return toCopy[i].ID < toCopy[j].ID })
		for _, rec := range toCopy {
			f.insertReceipt(id, rec)
		}
		f.mu.Unlock()
	}
	writeJSON(w, http.StatusCreated, farm)
}

func (f *FakeAPI) updateFarm(w http.ResponseWriter, r *http.Request) {
	var farm models.Farm
	if !decodeBody(w, r, &farm) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.farms[farm.ID]; !ok {
		http.NotFound(w, r)
		return
	}
	f.farms[farm.ID] = farm
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) deleteFarm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.farms[id]; !found {
		http.NotFound(w, r)
		return
	}
	delete(f.farms, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) listReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("nome")
	page, _ := strconv.Atoi(q.Get("PageNumber"))
	if page < 1 {
		page = 1
	}
	farmID, _ := strconv.ParseUint(q.Get("FazendaId"), 10, 64)

	f.mu.Lock()
	var all []models.Receipt
	for _, rec := range f.receipts {
		if farmID != 0 && rec.Farm.ID != farmID {
			continue
		}
		if search != "" && !strings.Contains(rec.RecipientName, search) && !strings.Contains(rec.PayerName, search) {
			continue
		}
		all = append(all, rec)
	}
	f.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	totalPages := (total + PageSize - 1) / PageSize
	start := min((page-1)*PageSize, total)
	end := min(start+PageSize, total)

	resp := models.ReceiptPage{
		PageNumber:   page,
		PageSize:     PageSize,
		TotalPages:   totalPages,
		TotalRecords: total,
		FirstPage:    pageLink(q, 1),
		LastPage:     pageLink(q, max(totalPages, 1)),
		Data:         append([]models.Receipt{}, all[start:end]...),
	}
	if page < totalPages {
		next := pageLink(q, page+1)
		resp.NextPage = &next
	}
	if page > 1 && page <= totalPages {
		prev := pageLink(q, page-1)
		resp.PreviousPage = &prev
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeAPI) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, found := f.Receipt(id)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (f *FakeAPI) createReceipt(w http.ResponseWriter, r *http.Request) {
	var body receiptBody
	if !decodeBody(w, r, &body) {
		return
	}
	f.mu.Lock()
	if _, ok := f.farms[body.Farm.ID]; !ok || body.Farm.Name == "" {
		f.mu.Unlock()
		http.Error(w, "fazenda inválida", http.StatusBadRequest)
		return
	}
	id := f.insertReceipt(body.Farm.ID, body.receipt())
	saved := f.receipts[id]
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, saved)
}

func (f *FakeAPI) updateReceipt(w http.ResponseWriter, r *http.Request) {
	var body receiptBody
	if !decodeBody(w, r, &body) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.receipts[body.ID]
	if !ok {
		http.NotFound(w, r)
		return
	}
	updated := body.receipt()
	updated.ID = current.ID
	updated.Number = current.Number
	updated.Farm = f.farms[body.Farm.ID]
	f.receipts[current.ID] = updated
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) deleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, found := f.receipts[id]; !found {
		http.NotFound(w, r)
		return
	}
	delete(f.receipts, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b receiptBody) receipt() models.Receipt {
	return models.Receipt{
		ID:                b.ID,
		Number:            b.Number,
		Date:              b.Date,
		Value:             b.Value,
		Historic:          b.Historic,
		RecipientName:     b.RecipientName,
		RecipientAddress:  b.RecipientAddress,
		RecipientDocument: b.RecipientDocument,
		PayerName:         b.PayerName,
		PayerAddress:      b.PayerAddress,
		PayerDocument:     b.PayerDocument,
	}
}

func pageLink(q url.Values, page int) string {
	v := url.Values{}
	for k, vals := range q {
		v[k] = vals
	}
	v.Set("PageNumber", strconv.Itoa(page))
	return "/api/recibo?" + v.Encode()
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "id inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "JSON inválido: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
