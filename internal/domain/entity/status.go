package entity

import "strings"

// Los estados se persisten con los códigos numéricos de los menús locales de
// Sage X3 (1000, 1002, 1003 y 1004). El valor cero significa "sin asignar":
// un registro recién generado todavía no tiene requestStatus ni
// integrationStatus.

// Status estado local de procesamiento de una factura (menú local 1000).
type Status int16

const (
	StatusWaiting          Status = 1
	StatusSentSuccessfully Status = 2
	StatusGenerationError  Status = 3
	StatusSentError        Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "WAITING"
	case StatusSentSuccessfully:
		return "SENT_SUCCESSFULLY"
	case StatusGenerationError:
		return "GENERATION_ERROR"
	case StatusSentError:
		return "SENT_ERROR"
	default:
		return "UNSET"
	}
}

// RequestStatus estado del job asíncrono en la red Saphety (menú local 1002).
type RequestStatus int16

const (
	RequestQueued   RequestStatus = 1
	RequestRunning  RequestStatus = 2
	RequestError    RequestStatus = 3
	RequestFinished RequestStatus = 4
)

func (s RequestStatus) String() string {
	switch s {
	case RequestQueued:
		return "QUEUED"
	case RequestRunning:
		return "RUNNING"
	case RequestError:
		return "ERROR"
	case RequestFinished:
		return "FINISHED"
	default:
		return "UNSET"
	}
}

// ParseRequestStatus convierte el campo AsyncStatus de la API (Queued,
// Running, Error, Finished) al código local. La comparación ignora
// mayúsculas. Devuelve false si el valor no es reconocido.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QUEUED":
		return RequestQueued, true
	case "RUNNING":
		return RequestRunning, true
	case "ERROR":
		return RequestError, true
	case "FINISHED":
		return RequestFinished, true
	default:
		return 0, false
	}
}

// IntegrationStatus estado de integración en la red receptora (menú local 1003).
type IntegrationStatus int16

const (
	IntegrationNotIntegrated IntegrationStatus = 1
	IntegrationNotSent       IntegrationStatus = 2
	IntegrationError         IntegrationStatus = 3
	IntegrationSent          IntegrationStatus = 4
	IntegrationReceived      IntegrationStatus = 5
	IntegrationRejected      IntegrationStatus = 6
	IntegrationPaid          IntegrationStatus = 7
)

func (s IntegrationStatus) String() string {
	switch s {
	case IntegrationNotIntegrated:
		return "NOT_INTEGRATED"
	case IntegrationNotSent:
		return "NOT_SENT"
	case IntegrationError:
		return "ERROR"
	case IntegrationSent:
		return "SENT"
	case IntegrationReceived:
		return "RECEIVED"
	case IntegrationRejected:
		return "REJECTED"
	case IntegrationPaid:
		return "PAID"
	default:
		return "UNSET"
	}
}

// ParseIntegrationStatus convierte el campo IntegrationStatus de la API al
// código local, ignorando mayúsculas.
func ParseIntegrationStatus(s string) (IntegrationStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOT_INTEGRATED", "NOTINTEGRATED":
		return IntegrationNotIntegrated, true
	case "NOT_SENT", "NOTSENT":
		return IntegrationNotSent, true
	case "ERROR":
		return IntegrationError, true
	case "SENT":
		return IntegrationSent, true
	case "RECEIVED":
		return IntegrationReceived, true
	case "REJECTED":
		return IntegrationRejected, true
	case "PAID":
		return IntegrationPaid, true
	default:
		return 0, false
	}
}

// NotificationStatus estado de notificación al receptor (menú local 1004).
type NotificationStatus int16

const (
	NotificationSent      NotificationStatus = 1
	NotificationDelivered NotificationStatus = 2
	NotificationRead      NotificationStatus = 3
	NotificationError     NotificationStatus = 4
)

func (s NotificationStatus) String() string {
	switch s {
	case NotificationSent:
		return "SENT"
	case NotificationDelivered:
		return "DELIVERED"
	case NotificationRead:
		return "READ"
	case NotificationError:
		return "ERROR"
	default:
		return "UNSET"
	}
}

// ParseNotificationStatus convierte el campo NotificationStatus de la API al
// código local, ignorando mayúsculas.
func ParseNotificationStatus(s string) (NotificationStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SENT":
		return NotificationSent, true
	case "DELIVERED":
		return NotificationDelivered, true
	case "READ":
		return NotificationRead, true
	case "ERROR":
		return NotificationError, true
	default:
		return 0, false
	}
}

// InvoiceCategory categoría del documento de venta (menú local 645).
type InvoiceCategory int16

const (
	CategoryInvoice    InvoiceCategory = 1
	CategoryCreditNote InvoiceCategory = 2
	CategoryDebitNote  InvoiceCategory = 3
	CategoryCreditMemo InvoiceCategory = 4
	CategoryProforma   InvoiceCategory = 5
)

// DocumentType devuelve el tipo de documento que espera la URL de envío de
// la API (processDocument/{sender}/{docType}/PT).
func (c InvoiceCategory) DocumentType() string {
	if c == CategoryInvoice {
		return "Invoice"
	}
	return "Credit_Note"
}

// InvoiceOrigin origen del documento de venta (menú local 413).
type InvoiceOrigin int16

const (
	OriginDirect   InvoiceOrigin = 1
	OriginOrder    InvoiceOrigin = 2
	OriginDelivery InvoiceOrigin = 3
	OriginInvoice  InvoiceOrigin = 4
)
