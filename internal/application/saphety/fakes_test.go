package saphety_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beevik/etree"

	app "github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
)

// ── dobles en memoria de los puertos de los orquestadores ─────────────────────

// memLedger tabla de control en memoria con la misma semántica de upsert que
// el repositorio real: crear con defaults de esquema o aplicar el patch.
type memLedger struct {
	records map[string]*entity.ControlRecord
	upserts int
}

var _ repository.ControlRepository = (*memLedger)(nil)

func newMemLedger() *memLedger {
	return &memLedger{records: map[string]*entity.ControlRecord{}}
}

func (l *memLedger) GetByInvoiceNumber(_ context.Context, invoiceNumber string) (*entity.ControlRecord, error) {
	rec, ok := l.records[invoiceNumber]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (l *memLedger) Upsert(_ context.Context, invoiceNumber string, patch repository.ControlPatch) (*entity.ControlRecord, error) {
	l.upserts++
	rec, ok := l.records[invoiceNumber]
	if !ok {
		rec = entity.NewControlRecord(invoiceNumber)
		l.records[invoiceNumber] = rec
	}
	patch.Apply(rec)
	return rec, nil
}

// memTx pasa el ledger en memoria sin transacción real.
type memTx struct {
	ledger *memLedger
	err    error
	runs   int
}

var _ app.ControlTxRunner = (*memTx)(nil)

func (t *memTx) Run(_ context.Context, fn func(repository.ControlRepository) error) error {
	t.runs++
	if t.err != nil {
		return t.err
	}
	return fn(t.ledger)
}

// memQueries vista de candidatos en memoria con los mismos predicados que la
// vista real.
type memQueries struct {
	candidates []entity.ControlCandidate
	err        error
}

var _ repository.ControlQueryRepository = (*memQueries)(nil)

func (q *memQueries) ListPending(_ context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.Status == entity.StatusWaiting
	})
}

func (q *memQueries) ListByRequestStatus(_ context.Context, status entity.RequestStatus, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.RequestStatus == status
	})
}

func (q *memQueries) ListToVerify(_ context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.RequestStatus == entity.RequestFinished && c.IntegrationStatus != entity.IntegrationReceived
	})
}

func (q *memQueries) filter(invoiceNumber string, pred func(entity.ControlCandidate) bool) ([]entity.ControlCandidate, error) {
	if q.err != nil {
		return nil, q.err
	}
	var out []entity.ControlCandidate
	for _, c := range q.candidates {
		if invoiceNumber != "" && c.InvoiceNumber != invoiceNumber {
			continue
		}
		if pred(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ledgerQueries vista de candidatos calculada sobre el ledger en memoria,
// para los tests que encadenan varios ciclos sobre la misma tabla de control:
// cada consulta refleja las transiciones ya confirmadas, igual que la vista
// real sobre la tabla.
type ledgerQueries struct {
	ledger *memLedger
}

var _ repository.ControlQueryRepository = (*ledgerQueries)(nil)

func (q *ledgerQueries) ListPending(_ context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.Status == entity.StatusWaiting
	}), nil
}

func (q *ledgerQueries) ListByRequestStatus(_ context.Context, status entity.RequestStatus, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.RequestStatus == status
	}), nil
}

func (q *ledgerQueries) ListToVerify(_ context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return q.filter(invoiceNumber, func(c entity.ControlCandidate) bool {
		return c.RequestStatus == entity.RequestFinished && c.IntegrationStatus != entity.IntegrationReceived
	}), nil
}

func (q *ledgerQueries) filter(invoiceNumber string, pred func(entity.ControlCandidate) bool) []entity.ControlCandidate {
	var out []entity.ControlCandidate
	for _, rec := range q.ledger.records {
		c := entity.ControlCandidate{
			InvoiceNumber:      rec.InvoiceNumber,
			Category:           entity.CategoryInvoice,
			Filename:           rec.Filename,
			Status:             rec.Status,
			RequestStatus:      rec.RequestStatus,
			IntegrationStatus:  rec.IntegrationStatus,
			NotificationStatus: rec.NotificationStatus,
			RequestID:          rec.RequestID,
			FinancialID:        rec.FinancialID,
			Sender:             "PT500100200",
		}
		if invoiceNumber != "" && c.InvoiceNumber != invoiceNumber {
			continue
		}
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// fakeInvoices repositorio de facturas pendientes en memoria.
type fakeInvoices struct {
	invoices []*entity.SalesInvoice
	err      error
}

var _ repository.InvoiceRepository = (*fakeInvoices)(nil)

func (f *fakeInvoices) FetchPendingInvoices(_ context.Context, invoiceNumber string) ([]*entity.SalesInvoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entity.SalesInvoice
	for _, inv := range f.invoices {
		if invoiceNumber == "" || inv.InvoiceNumber == invoiceNumber {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) FetchLines(context.Context, string) ([]entity.InvoiceLine, error) {
	return nil, nil
}

func (f *fakeInvoices) FetchTaxes(context.Context, string) ([]entity.InvoiceTax, error) {
	return nil, nil
}

// fakeBuilder generador de documentos que falla a demanda por factura.
type fakeBuilder struct {
	failFor map[string]error
}

var _ app.DocumentBuilder = (*fakeBuilder)(nil)

func (b *fakeBuilder) Build(_ context.Context, inv *entity.SalesInvoice, documentID string) (*etree.Document, error) {
	if err, ok := b.failFor[inv.InvoiceNumber]; ok {
		return nil, err
	}
	doc := etree.NewDocument()
	root := doc.CreateElement("Invoice")
	root.CreateElement("cbc:ID").SetText(documentID)
	return doc, nil
}

// memStore almacén de XML en memoria.
type memStore struct {
	files map[string][]byte
	saved []string
}

var _ app.DocumentStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (s *memStore) Save(_ *etree.Document, filename string) (string, error) {
	path := "/out/" + filename
	s.saved = append(s.saved, filename)
	s.files[path] = []byte("<Invoice/>")
	return path, nil
}

func (s *memStore) Read(path string) ([]byte, error) {
	if b, ok := s.files[path]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("fichero %s no existe", path)
}

// fakeAuth autenticación simulada.
type fakeAuth struct {
	token  string
	err    error
	logins int
}

var _ app.AuthClient = (*fakeAuth)(nil)

func (a *fakeAuth) Login(context.Context, string, string) (string, error) {
	a.logins++
	return a.token, a.err
}

func (a *fakeAuth) Logout(context.Context, string) error { return nil }

// fakeAPI cliente de la API con respuestas programables por operación.
type fakeAPI struct {
	processFn     func(sender, documentType string, xml []byte) *saphetyapi.Response
	statusFn      func(requestID string) *saphetyapi.Response
	integrationFn func(financialID string) *saphetyapi.Response
}

var _ app.APIClient = (*fakeAPI)(nil)

func (a *fakeAPI) ProcessDocument(_ context.Context, _, sender, documentType string, xml []byte) *saphetyapi.Response {
	if a.processFn == nil {
		return saphetyapi.ErrorResponse("", "processFn no configurado")
	}
	return a.processFn(sender, documentType, xml)
}

func (a *fakeAPI) RequestStatus(_ context.Context, _, requestID string) *saphetyapi.Response {
	if a.statusFn == nil {
		return saphetyapi.ErrorResponse(requestID, "statusFn no configurado")
	}
	return a.statusFn(requestID)
}

func (a *fakeAPI) IntegrationStatus(_ context.Context, _, financialID string) *saphetyapi.Response {
	if a.integrationFn == nil {
		return saphetyapi.ErrorResponse(financialID, "integrationFn no configurado")
	}
	return a.integrationFn(financialID)
}

// validResponse respuesta válida con el Data crudo indicado.
func validResponse(correlationID, rawData string) *saphetyapi.Response {
	return &saphetyapi.Response{
		CorrelationID: correlationID,
		IsValid:       true,
		Data:          json.RawMessage(rawData),
	}
}
