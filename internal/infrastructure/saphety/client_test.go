package saphety_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// TestLogin_TokenYCredenciales login correcto: POST JSON con las credenciales
// y el token llega en el Data del envelope.
func TestLogin_TokenYCredenciales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/Account/getToken", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "user@mop.pt", creds["Username"])
		assert.Equal(t, "secreto", creds["Password"])

		writeJSON(t, w, map[string]any{"IsValid": true, "Data": "tok-abc"})
	}))
	defer srv.Close()

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	token, err := client.Login(context.Background(), "user@mop.pt", "secreto")

	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestLogin_Rechazado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"IsValid": false, "Errors": []string{"invalid credentials"}})
	}))
	defer srv.Close()

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	_, err := client.Login(context.Background(), "user", "mal")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

// TestProcessDocument_RutaYCabeceras el XML viaja como application/xml con el
// token en la cabecera Authorization, al endpoint del emisor y tipo de
// documento.
func TestProcessDocument_RutaYCabeceras(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/CountryFormatAsyncRequest/processDocument/PT500100200/Invoice/PT", r.URL.Path)
		assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
		assert.Equal(t, "bearer tok-abc", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "<Invoice/>", string(body))

		writeJSON(t, w, map[string]any{"CorrelationId": "corr-1", "IsValid": true, "Data": "req-1"})
	}))
	defer srv.Close()

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	resp := client.ProcessDocument(context.Background(), "tok-abc", "PT500100200", "Invoice", []byte("<Invoice/>"))

	require.True(t, resp.IsValid)
	requestID, ok := resp.StringData()
	assert.True(t, ok)
	assert.Equal(t, "req-1", requestID)
}

// TestProcessDocument_ErrorHTTP un estado HTTP de error no aborta nada: se
// convierte en una respuesta inválida con el detalle en Errors.
func TestProcessDocument_ErrorHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	resp := client.ProcessDocument(context.Background(), "tok", "PT1", "Invoice", []byte("<Invoice/>"))

	require.NotNil(t, resp)
	assert.False(t, resp.IsValid)
	assert.Contains(t, resp.JoinedErrors(), "HTTP 500")
}

func TestRequestStatus_DecodificaEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/CountryFormatAsyncRequest/req-1", r.URL.Path)
		assert.Equal(t, "bearer tok", r.Header.Get("Authorization"))
		writeJSON(t, w, map[string]any{
			"CorrelationId": "corr-1",
			"IsValid":       true,
			"Data": map[string]any{
				"CorrelationId":               "corr-9",
				"AsyncStatus":                 "Finished",
				"OutboundFinancialDocumentId": "fin-7",
			},
		})
	}))
	defer srv.Close()

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	resp := client.RequestStatus(context.Background(), "tok", "req-1")

	require.True(t, resp.IsValid)
	data, ok := resp.AsyncData()
	require.True(t, ok)
	assert.Equal(t, "Finished", data.AsyncStatus)
	assert.Equal(t, "fin-7", data.OutboundFinancialDocumentID)
}

// TestIntegrationStatus_ServidorCaido un fallo de transporte también se
// convierte en respuesta inválida, con el id consultado como correlación.
func TestIntegrationStatus_ServidorCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // servidor apagado a propósito

	client := saphetyapi.NewClient(srv.URL, logger.Nop())
	resp := client.IntegrationStatus(context.Background(), "tok", "fin-7")

	require.NotNil(t, resp)
	assert.False(t, resp.IsValid)
	assert.Equal(t, "fin-7", resp.CorrelationID)
	assert.NotEmpty(t, resp.Errors)
}
