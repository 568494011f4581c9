// Package cache guarda respostas de consultas à API em memória.
//
// As entradas são indexadas por recurso + chave do descritor da consulta
// e expiram após o TTL configurado. Qualquer alteração bem-sucedida feita
// pelo cliente invalida o cache inteiro.
package cache

import (
	"context"
	"sync"
	"time"

	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
)

// Recursos usados como prefixo das chaves.
const (
	ResourceFarms    = "fazendas"
	ResourceFarm     = "fazenda"
	ResourceReceipts = "recibos"
	ResourceReceipt  = "recibo"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// QueryCache é seguro para uso concorrente. Com TTL 0 nada é guardado.
type QueryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New cria o cache com o TTL informado (valores <= 0 desabilitam).
func New(ttl time.Duration) *QueryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &QueryCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key monta a chave de um recurso com a chave do descritor da consulta.
func Key(resource, descriptorKey string) string {
	return resource + "?" + descriptorKey
}

// Enabled indica se o cache guarda algo.
func (c *QueryCache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Get retorna o valor guardado em key, se ainda válido.
func (c *QueryCache) Get(key string) (interface{}, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// pode ter sido regravada entre os locks
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set guarda value em key.
func (c *QueryCache) Set(key string, value interface{}) {
	if !c.Enabled() {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateAll descarta todas as entradas. Chamado após cada alteração.
func (c *QueryCache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	if n > 0 {
		appLogger.Debugf("Cache de consultas invalidado (%d entradas descartadas)", n)
	}
}

// Len retorna quantas entradas estão guardadas (incluindo expiradas ainda não removidas).
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch retorna o valor em cache para key ou executa load e guarda o resultado.
// Erros de load não são guardados. O valor devolvido é o mesmo que fica no
// cache: quem o repassa adiante deve entregar uma cópia.
func Fetch[T any](ctx context.Context, c *QueryCache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, value)
	return value, nil
}
