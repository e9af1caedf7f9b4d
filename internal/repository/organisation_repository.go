package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/academic-erp/internal/domain"
)

// PageRequest selects one page of organisations. Page is zero based.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// sortColumns whitelists the columns a page may be ordered by.
var sortColumns = map[string]string{
	"id":      "o.id",
	"name":    "o.name",
	"address": "o.address",
}

// OrganisationRepository persists partner organisations together with their HR contact.
type OrganisationRepository interface {
	Create(ctx context.Context, org *domain.Organisation) error
	GetByID(ctx context.Context, id int64) (*domain.Organisation, error)
	List(ctx context.Context) ([]domain.Organisation, error)
	ListPage(ctx context.Context, page PageRequest) ([]domain.Organisation, int64, error)
	Search(ctx context.Context, term string) ([]domain.Organisation, error)
	SearchByName(ctx context.Context, name string) ([]domain.Organisation, error)
	Update(ctx context.Context, org *domain.Organisation) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	HREmailExists(ctx context.Context, email string) (bool, error)
}

type organisationRepository struct {
	db DBTX
}

// NewOrganisationRepository returns a Postgres-backed implementation.
func NewOrganisationRepository(db DBTX) OrganisationRepository {
	return &organisationRepository{db: db}
}

const organisationSelect = `
        SELECT o.id, o.name, o.address,
               h.id, h.organisation_id, h.first_name, h.last_name, h.email, h.contact_number
        FROM organisations o
        JOIN organisation_hr h ON h.organisation_id = o.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganisation(row rowScanner) (*domain.Organisation, error) {
	var org domain.Organisation
	var hr domain.OrganisationHR
	if err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Address,
		&hr.ID,
		&hr.OrganisationID,
		&hr.FirstName,
		&hr.LastName,
		&hr.Email,
		&hr.ContactNumber,
	); err != nil {
		return nil, err
	}
	org.HR = &hr
	return &org, nil
}

func (r *organisationRepository) collect(ctx context.Context, query string, args ...any) ([]domain.Organisation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Organisation, 0)
	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *org)
	}
	return result, rows.Err()
}

func (r *organisationRepository) Create(ctx context.Context, org *domain.Organisation) error {
	if r.db == nil {
		return ErrDatabaseUnavailable
	}
	if org.HR == nil {
		return fmt.Errorf("organisation %q has no HR contact", org.Name)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertOrg = `
        INSERT INTO organisations (name, address)
        VALUES ($1, $2)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertOrg, org.Name, org.Address).Scan(&org.ID); err != nil {
		return err
	}

	const insertHR = `
        INSERT INTO organisation_hr (organisation_id, first_name, last_name, email, contact_number)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`
	org.HR.OrganisationID = org.ID
	if err := tx.QueryRow(ctx, insertHR,
		org.ID,
		org.HR.FirstName,
		org.HR.LastName,
		org.HR.Email,
		org.HR.ContactNumber,
	).Scan(&org.HR.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *organisationRepository) GetByID(ctx context.Context, id int64) (*domain.Organisation, error) {
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return scanOrganisation(r.db.QueryRow(ctx, organisationSelect+` WHERE o.id=$1`, id))
}

func (r *organisationRepository) List(ctx context.Context) ([]domain.Organisation, error) {
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return r.collect(ctx, organisationSelect+` ORDER BY o.id`)
}

func (r *organisationRepository) ListPage(ctx context.Context, page PageRequest) ([]domain.Organisation, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDatabaseUnavailable
	}
	column, ok := sortColumns[strings.ToLower(page.SortBy)]
	if !ok {
		column = sortColumns["id"]
	}
	direction := "ASC"
	if strings.EqualFold(page.SortDir, "desc") {
		direction = "DESC"
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM organisations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s ORDER BY %s %s, o.id ASC LIMIT $1 OFFSET $2`, organisationSelect, column, direction)
	orgs, err := r.collect(ctx, query, page.Size, page.Page*page.Size)
	if err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

func (r *organisationRepository) Search(ctx context.Context, term string) ([]domain.Organisation, error) {
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	const where = `
        WHERE o.name ILIKE $1 OR o.address ILIKE $1
           OR h.first_name ILIKE $1 OR h.last_name ILIKE $1 OR h.email ILIKE $1
        ORDER BY o.id`
	return r.collect(ctx, organisationSelect+where, likePattern(term))
}

func (r *organisationRepository) SearchByName(ctx context.Context, name string) ([]domain.Organisation, error) {
	if r.db == nil {
		return nil, ErrDatabaseUnavailable
	}
	return r.collect(ctx, organisationSelect+` WHERE o.name ILIKE $1 ORDER BY o.id`, likePattern(name))
}

func (r *organisationRepository) Update(ctx context.Context, org *domain.Organisation) error {
	if r.db == nil {
		return ErrDatabaseUnavailable
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cmd, err := tx.Exec(ctx, `UPDATE organisations SET name=$1, address=$2 WHERE id=$3`,
		org.Name,
		org.Address,
		org.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if org.HR != nil {
		const updateHR = `
        UPDATE organisation_hr SET first_name=$1, last_name=$2, email=$3, contact_number=$4
        WHERE organisation_id=$5`
		if _, err := tx.Exec(ctx, updateHR,
			org.HR.FirstName,
			org.HR.LastName,
			org.HR.Email,
			org.HR.ContactNumber,
			org.ID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *organisationRepository) Delete(ctx context.Context, id int64) error {
	if r.db == nil {
		return ErrDatabaseUnavailable
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM organisations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *organisationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if r.db == nil {
		return false, ErrDatabaseUnavailable
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organisations WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *organisationRepository) HREmailExists(ctx context.Context, email string) (bool, error) {
	if r.db == nil {
		return false, ErrDatabaseUnavailable
	}
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organisation_hr WHERE lower(email)=lower($1))`, email).Scan(&exists)
	return exists, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
