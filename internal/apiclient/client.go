// Package apiclient fala com a API REST de fazendas e recibos.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dukorsa/APP_RECIBOS_GO/internal/core"
	appLogger "github.com/Dukorsa/APP_RECIBOS_GO/internal/core/logger"
)

// RequestIDHeader é o cabeçalho que identifica cada requisição nos logs da API.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody limita quanto do corpo de uma resposta de erro é guardado.
const maxErrorBody = 1024

type requestIDKey struct{}

// WithRequestID associa um id de requisição ao contexto. O cliente usa esse id
// no cabeçalho X-Request-ID em vez de gerar um novo, o que permite ao chamador
// registrar o mesmo id na auditoria.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom retorna o id associado ao contexto, se houver.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// NewRequestID gera um id de requisição.
func NewRequestID() string {
	return uuid.NewString()
}

// RemoteError descreve uma falha ao chamar a API: resposta não-2xx ou erro de transporte.
// errors.Is(err, core.ErrRemote) é sempre verdadeiro; 404 também casa com core.ErrNotFound.
type RemoteError struct {
	Method     string
	Path       string
	StatusCode int // 0 quando a requisição nem chegou a ter resposta
	Body       string
	RequestID  string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("%s %s falhou: %v", e.Method, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s %s retornou %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s %s retornou %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s retornou %d", e.Method, e.Path, e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool {
	switch target {
	case core.ErrRemote:
		return true
	case core.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// Client é o cliente HTTP da API. Não faz novas tentativas em caso de falha.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New cria um cliente para a API em baseURL ("http://servidor:5000").
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: URL da API inválida '%s'", core.ErrConfiguration, baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewFromConfig cria o cliente com APP_API_URL e APP_API_TIMEOUT.
func NewFromConfig(cfg *core.Config) (*Client, error) {
	return New(cfg.APIURL, cfg.APITimeout)
}

// BaseURL retorna o endereço da API.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint monta a URL absoluta de path com os parâmetros de consulta.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// do executa a requisição e decodifica o JSON da resposta em out (se não for nil).
// Respostas sem corpo são aceitas mesmo com out preenchido.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: falha ao serializar corpo de %s %s: %v", core.ErrInternal, method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%w: falha ao montar requisição %s %s: %v", core.ErrInternal, method, path, err)
	}
	requestID, ok := RequestIDFrom(ctx)
	if !ok {
		requestID = NewRequestID()
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := appLogger.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	started := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Falha de comunicação com a API")
		return &RemoteError{Method: method, Path: path, RequestID: requestID, Err: err}
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{"status": resp.StatusCode, "elapsed_ms": time.Since(started).Milliseconds()})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("API retornou erro")
		return &RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
			RequestID:  requestID,
		}
	}
	log.Debug("Resposta da API recebida")

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Method: method, Path: path, StatusCode: resp.StatusCode, RequestID: requestID, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Err:        fmt.Errorf("resposta JSON inválida: %w", err),
		}
	}
	return nil
}
