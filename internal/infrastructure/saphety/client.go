package saphety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// requestTimeout límite de cada llamada a la API.
const requestTimeout = 15 * time.Second

// Client cliente HTTP de la API Saphety. Las operaciones de documento nunca
// devuelven error de Go: los fallos de transporte y HTTP se convierten en
// respuestas con IsValid=false para que el orquestador los trate igual que
// un rechazo de la API.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *logger.Logger
}

// NewClient construye el cliente. server puede venir con o sin esquema.
func NewClient(server string, log *logger.Logger) *Client {
	base := strings.TrimSuffix(server, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Client{
		baseURL: base,
		httpc:   &http.Client{Timeout: requestTimeout},
		log:     log,
	}
}

// Login obtiene un token de acceso (válido una hora).
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.log.Info().Str("user", username).Msg("autenticar contra la API Saphety")

	payload, err := json.Marshal(map[string]string{"Username": username, "Password": password})
	if err != nil {
		return "", fmt.Errorf("serializar credenciales: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/Account/getToken", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("crear petición de login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("login Saphety: %w", err)
	}
	if !resp.IsValid {
		return "", fmt.Errorf("login Saphety rechazado: %s", resp.JoinedErrors())
	}

	token, ok := resp.StringData()
	if !ok || token == "" {
		return "", fmt.Errorf("login Saphety: la respuesta no trae token")
	}

	c.log.Info().Msg("autenticación correcta, token recibido")
	return token, nil
}

// Logout invalida el token de la sesión.
func (c *Client) Logout(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Logout", nil)
	if err != nil {
		return fmt.Errorf("crear petición de logout: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("logout Saphety: %w", err)
	}
	return nil
}

// ProcessDocument envía un XML CIUS-PT para procesamiento asíncrono.
// documentType es "Invoice" o "Credit_Note"; el país es siempre PT.
func (c *Client) ProcessDocument(ctx context.Context, token, sender, documentType string, xml []byte) *Response {
	url := fmt.Sprintf("%s/api/CountryFormatAsyncRequest/processDocument/%s/%s/PT", c.baseURL, sender, documentType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(xml))
	if err != nil {
		return ErrorResponse("", err.Error())
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Authorization", "bearer "+token)

	resp, err := c.do(req)
	if err != nil {
		c.log.Error().Err(err).Str("sender", sender).Msg("error HTTP al enviar el documento")
		return ErrorResponse("", err.Error())
	}
	return resp
}

// RequestStatus consulta el estado del job asíncrono de un envío.
func (c *Client) RequestStatus(ctx context.Context, token, requestID string) *Response {
	url := fmt.Sprintf("%s/api/CountryFormatAsyncRequest/%s", c.baseURL, requestID)

	resp, err := c.get(ctx, url, token)
	if err != nil {
		c.log.Error().Err(err).Str("request_id", requestID).Msg("error HTTP al consultar el estado del envío")
		return ErrorResponse(requestID, err.Error())
	}
	return resp
}

// IntegrationStatus consulta el estado de un documento saliente en la red
// receptora.
func (c *Client) IntegrationStatus(ctx context.Context, token, financialID string) *Response {
	url := fmt.Sprintf("%s/api/OutboundFinancialDocument/%s", c.baseURL, financialID)

	resp, err := c.get(ctx, url, token)
	if err != nil {
		c.log.Error().Err(err).Str("financial_id", financialID).Msg("error HTTP al consultar el estado de integración")
		return ErrorResponse(financialID, err.Error())
	}
	return resp
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, url, token string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "bearer "+token)
	return c.do(req)
}

// do ejecuta la petición y decodifica el envelope. Los estados HTTP de error
// se devuelven como error con el cuerpo incluido.
func (c *Client) do(req *http.Request) (*Response, error) {
	httpResp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("respuesta no JSON de la API: %w", err)
	}
	return &resp, nil
}
