package entity_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
)

// TestNewControlRecord_DefaultsDeEsquema un registro recién creado arranca con
// el primer valor de cada menú local, igual que los defaults de la tabla.
func TestNewControlRecord_DefaultsDeEsquema(t *testing.T) {
	rec := entity.NewControlRecord("FAC-2024/001")

	assert.Equal(t, "FAC-2024/001", rec.InvoiceNumber)
	assert.Equal(t, entity.StatusWaiting, rec.Status)
	assert.Equal(t, entity.RequestQueued, rec.RequestStatus)
	assert.Equal(t, entity.IntegrationNotIntegrated, rec.IntegrationStatus)
	assert.Equal(t, entity.NotificationSent, rec.NotificationStatus)
	assert.Empty(t, rec.Message)
	assert.Empty(t, rec.Filename)
}

// TestTruncateMessage la columna MSGAPI_0 admite 250 caracteres; los mensajes
// de error de la API pueden ser mucho más largos.
func TestTruncateMessage(t *testing.T) {
	long := strings.Repeat("x", 600)
	assert.Len(t, entity.TruncateMessage(long), entity.MaxMessageLen)

	short := "Enviado com sucesso"
	assert.Equal(t, short, entity.TruncateMessage(short))
}

// TestTruncateMessage_Multibyte el corte nunca parte una runa: los mensajes en
// portugués ponen un carácter multibyte justo en el límite.
func TestTruncateMessage_Multibyte(t *testing.T) {
	msg := strings.Repeat("a", entity.MaxMessageLen-1) + "ção inválida"

	got := entity.TruncateMessage(msg)
	assert.True(t, utf8.ValidString(got), "el mensaje truncado debe ser UTF-8 válido")
	assert.Equal(t, entity.MaxMessageLen, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "aç"), "la runa del límite se conserva entera")
}

// TestIsLegacyZero la fecha centinela de X3 (1753-01-01) y el cero de Go se
// tratan ambos como "sin fecha".
func TestIsLegacyZero(t *testing.T) {
	assert.True(t, entity.IsLegacyZero(time.Time{}))
	assert.True(t, entity.IsLegacyZero(entity.DefaultLegacyDate))
	assert.False(t, entity.IsLegacyZero(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
}

func TestBillToName_ConcatenaNoVacios(t *testing.T) {
	h := &entity.InvoiceHeader{BillToCustomerName1: "Mercado", BillToCustomerName2: "do Porto"}
	assert.Equal(t, "Mercado do Porto", h.BillToName())

	h.BillToCustomerName2 = "  "
	assert.Equal(t, "Mercado", h.BillToName())
}
