package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// Nomes dos parâmetros de consulta esperados pela API.
const (
	ParamSearch = "nome"
	ParamPage   = "PageNumber"
	ParamFarm   = "FazendaId"
)

// pageSiblings é quantas páginas aparecem antes e depois da página atual.
const pageSiblings = 2

// ListQuery é o estado de filtro de uma tela de listagem.
// FarmID 0 significa "todas as fazendas".
type ListQuery struct {
	Search string
	Page   int
	FarmID uint64
}

// NewListQuery retorna o estado inicial de uma listagem (sem filtros, página 1).
func NewListQuery() ListQuery {
	return ListQuery{Page: 1}
}

// WithSearch troca o texto de busca. Um novo filtro invalida a página anterior,
// então a página volta para 1.
func (q ListQuery) WithSearch(search string) ListQuery {
	q.Search = search
	q.Page = 1
	return q
}

// WithFarm troca a fazenda filtrada e volta para a página 1.
func (q ListQuery) WithFarm(farmID uint64) ListQuery {
	q.FarmID = farmID
	q.Page = 1
	return q
}

// WithPage muda apenas a página.
func (q ListQuery) WithPage(page int) ListQuery {
	q.Page = page
	return q
}

// Descriptor monta o RequestDescriptor correspondente ao estado atual.
func (q ListQuery) Descriptor() RequestDescriptor {
	return BuildQuery(q.Search, q.Page, q.FarmID)
}

// RequestDescriptor descreve uma consulta de listagem já normalizada.
// Valores zero significam "omitido".
type RequestDescriptor struct {
	Search     string
	PageNumber int
	FarmID     uint64
}

// BuildQuery normaliza os filtros de uma listagem.
// Página menor que 1 vira 1; FarmID 0 é omitido; busca vazia é omitida e
// busca preenchida é convertida para maiúsculas.
// BuildQuery não reseta a página por conta própria: use ListQuery.WithSearch/WithFarm.
func BuildQuery(search string, page int, farmID uint64) RequestDescriptor {
	if page < 1 {
		page = 1
	}
	return RequestDescriptor{
		Search:     ToUpperBR(strings.TrimSpace(search)),
		PageNumber: page,
		FarmID:     farmID,
	}
}

// Params retorna os parâmetros de consulta HTTP. Campos omitidos não aparecem.
func (d RequestDescriptor) Params() url.Values {
	v := url.Values{}
	if d.Search != "" {
		v.Set(ParamSearch, d.Search)
	}
	if d.PageNumber > 0 {
		v.Set(ParamPage, strconv.Itoa(d.PageNumber))
	}
	if d.FarmID > 0 {
		v.Set(ParamFarm, strconv.FormatUint(d.FarmID, 10))
	}
	return v
}

// Key é uma chave estável para cache: descritores iguais geram a mesma chave.
func (d RequestDescriptor) Key() string {
	return d.Params().Encode() // Encode ordena as chaves
}

// PageItem é um botão da barra de paginação: um número de página ou reticências.
type PageItem struct {
	Number   int
	Ellipsis bool
}

// PageDescriptor é a visão derivada da paginação de uma resposta.
type PageDescriptor struct {
	CurrentPage  int // já limitada a [1, max(TotalPages,1)]
	PageSize     int
	TotalRecords int
	TotalPages   int
	Items        []PageItem
	HasPrevious  bool
	HasNext      bool
}

// Pages retorna só os números de página exibidos, sem as reticências.
func (p PageDescriptor) Pages() []int {
	pages := make([]int, 0, len(p.Items))
	for _, it := range p.Items {
		if !it.Ellipsis {
			pages = append(pages, it.Number)
		}
	}
	return pages
}

// DerivePages calcula a barra de paginação a partir do total informado pelo servidor.
// currentPage é limitada apenas para exibição.
func DerivePages(totalRecords, pageSize, currentPage int) PageDescriptor {
	totalPages := 0
	if totalRecords > 0 && pageSize > 0 {
		totalPages = (totalRecords + pageSize - 1) / pageSize
	}

	current := currentPage
	if current < 1 {
		current = 1
	}
	if upper := max(totalPages, 1); current > upper {
		current = upper
	}

	pd := PageDescriptor{
		CurrentPage:  current,
		PageSize:     pageSize,
		TotalRecords: totalRecords,
		TotalPages:   totalPages,
		Items:        []PageItem{},
		HasPrevious:  current > 1,
		HasNext:      current < totalPages,
	}
	if totalPages == 0 {
		return pd
	}

	pd.Items = append(pd.Items, PageItem{Number: 1})
	if totalPages == 1 {
		return pd
	}

	start := max(2, current-pageSiblings)
	end := min(totalPages-1, current+pageSiblings)

	pd.Items = appendGap(pd.Items, 2, start-1)
	for n := start; n <= end; n++ {
		pd.Items = append(pd.Items, PageItem{Number: n})
	}
	pd.Items = appendGap(pd.Items, end+1, totalPages-1)

	pd.Items = append(pd.Items, PageItem{Number: totalPages})
	return pd
}

// appendGap trata as páginas escondidas [from, to]: uma única página é exibida,
// duas ou mais viram reticências.
func appendGap(items []PageItem, from, to int) []PageItem {
	switch hidden := to - from + 1; {
	case hidden <= 0:
		return items
	case hidden == 1:
		return append(items, PageItem{Number: from})
	default:
		return append(items, PageItem{Ellipsis: true})
	}
}
