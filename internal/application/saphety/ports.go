// Package saphety orquesta el ciclo de vida de las facturas frente a la red
// Saphety: generación del XML CIUS-PT, envío asíncrono y verificación del
// estado de integración. Cada orquestador corresponde a un job programable y
// procesa factura a factura, aislando los fallos individuales.
package saphety

import (
	"context"

	"github.com/beevik/etree"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
)

// DocumentBuilder construye el documento UBL 2.1 de una factura. documentID
// es el identificador del documento (cbc:ID), derivado del número de factura.
type DocumentBuilder interface {
	Build(ctx context.Context, inv *entity.SalesInvoice, documentID string) (*etree.Document, error)
}

// DocumentStore gestiona los ficheros XML en la carpeta de salida.
type DocumentStore interface {
	// Save escribe el documento y devuelve la ruta completa del fichero.
	Save(doc *etree.Document, filename string) (string, error)
	// Read lee un XML ya generado por su ruta completa.
	Read(path string) ([]byte, error)
}

// AuthClient autenticación contra la API Saphety. El token dura una hora:
// un login por lote es suficiente.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// APIClient operaciones de la API Saphety. Los errores de transporte y HTTP
// se devuelven como respuestas con IsValid=false, nunca interrumpen el lote.
type APIClient interface {
	// ProcessDocument envía un XML para procesamiento asíncrono.
	// documentType es "Invoice" o "Credit_Note".
	ProcessDocument(ctx context.Context, token, sender, documentType string, xml []byte) *saphetyapi.Response
	// RequestStatus consulta el estado del job asíncrono de un envío.
	RequestStatus(ctx context.Context, token, requestID string) *saphetyapi.Response
	// IntegrationStatus consulta el estado de integración del documento en la
	// red receptora.
	IntegrationStatus(ctx context.Context, token, financialID string) *saphetyapi.Response
}

// ControlTxRunner ejecuta fn dentro de una transacción con el repositorio de
// control atado a ella. Cada factura se procesa en su propia transacción: un
// fallo afecta solo a su registro.
type ControlTxRunner interface {
	Run(ctx context.Context, fn func(ledger repository.ControlRepository) error) error
}

// Credentials credenciales de la cuenta Saphety.
type Credentials struct {
	Username string
	Password string
}
