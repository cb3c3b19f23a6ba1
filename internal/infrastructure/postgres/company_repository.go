package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo lectura de la sociedad emisora (COMPANY) con su dirección por
// defecto en BPADDRESS (entidad tipo sociedad, BPAADDFLG=Sí).
type CompanyRepo struct {
	q      Querier
	schema string
}

func NewCompanyRepository(q Querier, schema string) *CompanyRepo {
	return &CompanyRepo{q: q, schema: schema}
}

// FindWithAddress devuelve nil, nil si la sociedad no existe.
func (r *CompanyRepo) FindWithAddress(ctx context.Context, company string) (*entity.Company, error) {
	query := fmt.Sprintf(`
		SELECT co.CPY_0, co.CPYNAM_0, co.EECNUM_0,
		       a.BPAADDLIG_0, a.BPAADDLIG_1, a.BPAADDLIG_2,
		       a.CTY_0, a.POSCOD_0, a.CRY_0
		FROM %[1]s.COMPANY co
		JOIN %[1]s.BPADDRESS a
		  ON a.BPANUM_0 = co.CPY_0 AND a.BPATYP_0 = 3 AND a.BPAADDFLG_0 = 2
		WHERE co.CPY_0 = $1`, r.schema)

	var c entity.Company
	err := r.q.QueryRow(ctx, query, company).Scan(
		&c.Code,
		&c.Name,
		&c.IntraCommunityVatNumber,
		&c.AddressLines[0],
		&c.AddressLines[1],
		&c.AddressLines[2],
		&c.City,
		&c.PostalCode,
		&c.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error al leer la sociedad %s: %w", company, err)
	}
	return &c, nil
}
