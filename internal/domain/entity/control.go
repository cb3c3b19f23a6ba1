package entity

import (
	"time"
	"unicode/utf8"
)

// MaxMessageLen longitud máxima del mensaje persistido en la tabla de
// control (columna MSGAPI_0). Todo texto más largo se trunca al escribir.
const MaxMessageLen = 250

// ControlRecord es una fila de la tabla de control YSAPHCTL: el libro mayor
// del ciclo de vida de cada factura frente a la red Saphety. Existe un
// registro si y solo si la factura comenzó a procesarse; nunca se borra y
// cada transición sobrescribe el estado anterior.
type ControlRecord struct {
	InvoiceNumber      string
	Status             Status
	RequestStatus      RequestStatus
	IntegrationStatus  IntegrationStatus
	NotificationStatus NotificationStatus
	Filename           string
	Message            string
	SendDate           time.Time
	RequestID          string
	FinancialID        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewControlRecord crea un registro con los defaults de esquema: los enums
// arrancan en el primer valor del menú local correspondiente, igual que los
// defaults TINYINT de la tabla X3.
func NewControlRecord(invoiceNumber string) *ControlRecord {
	return &ControlRecord{
		InvoiceNumber:      invoiceNumber,
		Status:             StatusWaiting,
		RequestStatus:      RequestQueued,
		IntegrationStatus:  IntegrationNotIntegrated,
		NotificationStatus: NotificationSent,
	}
}

// TruncateMessage recorta un mensaje a MaxMessageLen caracteres. El corte es
// por runas: los mensajes en portugués traen multibyte (ã, ç) y partir uno por
// la mitad produciría UTF-8 inválido que la base rechazaría.
func TruncateMessage(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxMessageLen {
		return msg
	}
	return string([]rune(msg)[:MaxMessageLen])
}

// ControlCandidate es una fila de la vista YVWSAPHCTL: el registro de
// control enriquecido con las columnas de la factura que hacen falta para
// armar la URL de envío (emisor, categoría) sin volver a leer SINVOICEV.
type ControlCandidate struct {
	InvoiceNumber      string
	Category           InvoiceCategory
	InvoiceDate        time.Time
	Filename           string
	SendDate           time.Time
	Message            string
	Status             Status
	RequestStatus      RequestStatus
	IntegrationStatus  IntegrationStatus
	NotificationStatus NotificationStatus
	RequestID          string
	FinancialID        string
	Company            string
	Sender             string
	Receiver           string
	Customer           string
}
