// Package saphety implementa el cliente HTTP de la API Saphety Invoice
// Network y los tipos de su envelope de respuesta.
package saphety

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Response envelope común de todas las respuestas de la API. Data cambia de
// forma según el endpoint (token en texto plano, id de petición, o el estado
// de un job asíncrono): se conserva crudo y se decodifica bajo demanda.
type Response struct {
	CorrelationID string          `json:"CorrelationId"`
	IsValid       bool            `json:"IsValid"`
	Errors        []string        `json:"Errors"`
	Data          json.RawMessage `json:"Data"`
}

// ErrorResponse construye una respuesta inválida a partir de un fallo local
// (transporte, HTTP, fichero ausente). Así los errores siguen el mismo camino
// que los rechazos de la API y nunca abortan el lote.
func ErrorResponse(correlationID string, msgs ...string) *Response {
	return &Response{
		CorrelationID: correlationID,
		IsValid:       false,
		Errors:        msgs,
		Data:          json.RawMessage(`""`),
	}
}

// JoinedErrors concatena los errores de la respuesta en una sola línea.
func (r *Response) JoinedErrors() string {
	return strings.Join(r.Errors, ", ")
}

// AsyncData es el Data estructurado que devuelve el endpoint de estado de un
// job asíncrono (CountryFormatAsyncRequest).
type AsyncData struct {
	CorrelationID               string   `json:"CorrelationId"`
	AsyncStatus                 string   `json:"AsyncStatus"`
	OutboundFinancialDocumentID string   `json:"OutboundFinancialDocumentId"`
	Errors                      []string `json:"Errors"`
}

// AsyncData decodifica Data como estado de job asíncrono. Devuelve false si
// Data no es un objeto JSON.
func (r *Response) AsyncData() (*AsyncData, bool) {
	if !isJSONObject(r.Data) {
		return nil, false
	}
	var data AsyncData
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, false
	}
	return &data, true
}

// IntegrationData es el Data que devuelve el endpoint de documentos salientes
// (OutboundFinancialDocument) con el estado del documento en la red receptora.
type IntegrationData struct {
	DocumentStatus     string `json:"DocumentStatus"`
	IntegrationStatus  string `json:"IntegrationStatus"`
	NotificationStatus string `json:"NotificationStatus"`
}

// IntegrationData decodifica Data como estado de integración. Devuelve false
// si Data no es un objeto JSON.
func (r *Response) IntegrationData() (*IntegrationData, bool) {
	if !isJSONObject(r.Data) {
		return nil, false
	}
	var data IntegrationData
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return nil, false
	}
	return &data, true
}

// StringData decodifica Data como valor plano: un string o, según el
// endpoint, una lista de strings de la que cuenta el primer elemento.
func (r *Response) StringData() (string, bool) {
	trimmed := bytes.TrimSpace(r.Data)
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false
		}
		return s, true
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) == 0 {
			return "", false
		}
		return list[0], true
	default:
		return "", false
	}
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
