package repository_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

func ptr[T any](v T) *T { return &v }

// TestControlPatch_Apply_SoloCamposPresentes el patch solo toca los campos con
// valor; el resto del registro queda intacto (last-write-wins por campo).
func TestControlPatch_Apply_SoloCamposPresentes(t *testing.T) {
	rec := entity.NewControlRecord("FAC-001")
	rec.Filename = "/out/FAC001.xml"
	rec.Message = "Ficheiro XML gerado"

	patch := repository.ControlPatch{
		Status:    ptr(entity.StatusSentSuccessfully),
		RequestID: ptr("corr-123"),
	}
	patch.Apply(rec)

	assert.Equal(t, entity.StatusSentSuccessfully, rec.Status)
	assert.Equal(t, "corr-123", rec.RequestID)
	// campos no presentes en el patch
	assert.Equal(t, "/out/FAC001.xml", rec.Filename)
	assert.Equal(t, "Ficheiro XML gerado", rec.Message)
	assert.Equal(t, entity.RequestQueued, rec.RequestStatus)
}

// TestControlPatch_Apply_TruncaMensaje el mensaje siempre pasa por el límite
// de la columna, venga de donde venga, sin partir runas multibyte.
func TestControlPatch_Apply_TruncaMensaje(t *testing.T) {
	rec := entity.NewControlRecord("FAC-002")
	patch := repository.ControlPatch{Message: ptr(strings.Repeat("e", 1000))}
	patch.Apply(rec)

	assert.Len(t, rec.Message, entity.MaxMessageLen)

	rec = entity.NewControlRecord("FAC-002")
	patch = repository.ControlPatch{Message: ptr(strings.Repeat("ã", 1000))}
	patch.Apply(rec)

	assert.True(t, utf8.ValidString(rec.Message))
	assert.Equal(t, entity.MaxMessageLen, utf8.RuneCountInString(rec.Message))
}

// TestControlPatch_Apply_Idempotente aplicar dos veces el mismo patch deja el
// registro exactamente igual: es la garantía de que reintentar un upsert no
// corrompe nada.
func TestControlPatch_Apply_Idempotente(t *testing.T) {
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
	patch := repository.ControlPatch{
		Status:            ptr(entity.StatusSentError),
		RequestStatus:     ptr(entity.RequestError),
		IntegrationStatus: ptr(entity.IntegrationError),
		Message:           ptr("document rejected"),
		SendDate:          ptr(now),
		FinancialID:       ptr("fin-9"),
	}

	first := entity.NewControlRecord("FAC-003")
	patch.Apply(first)

	second := entity.NewControlRecord("FAC-003")
	patch.Apply(second)
	patch.Apply(second)

	assert.Equal(t, first, second)
}

func TestControlPatch_Apply_Vacio(t *testing.T) {
	rec := entity.NewControlRecord("FAC-004")
	before := *rec

	repository.ControlPatch{}.Apply(rec)

	assert.Equal(t, before, *rec, "un patch vacío no debe tocar nada")
}
