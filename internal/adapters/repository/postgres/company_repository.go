package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	pgdb "github.com/ogurasousui/company-lifecycle/internal/platform/db/postgres"
	"github.com/pkg/errors"
)

const (
	uniqueViolationCode = "23505"

	emailConstraint     = "companies_email_key"
	shortNameConstraint = "companies_short_name_key"
)

const companyColumns = `id, external_id, email, short_name, long_name, tax_number, country, city,
               postal_code, street, building_number, apartment_number, is_active, is_deleted,
               is_system, created_at, updated_at, deleted_at, created_by, updated_by, version`

// CompanyRepository は PostgreSQL を利用した会社永続化の実装です。
type CompanyRepository struct {
	pool pgdb.Queryer
}

var _ company.Repository = (*CompanyRepository)(nil)

// NewCompanyRepository は CompanyRepository を生成します。
func NewCompanyRepository(pool pgdb.Queryer) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// Save は ID が 0 の会社を挿入し、それ以外はバージョンを照合して更新します。
func (r *CompanyRepository) Save(ctx context.Context, c *company.Company) (*company.Company, error) {
	if c.ID() == 0 {
		return r.insert(ctx, c.Snapshot())
	}
	return r.update(ctx, c.Snapshot())
}

func (r *CompanyRepository) insert(ctx context.Context, s company.Snapshot) (*company.Company, error) {
	apartment, err := nullableInt(s.ApartmentNumber)
	if err != nil {
		return nil, errors.Wrap(err, "insert company")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO companies (external_id, email, short_name, long_name, tax_number, country, city,
                               postal_code, street, building_number, apartment_number, is_active,
                               is_deleted, is_system, created_at, updated_at, deleted_at, created_by,
                               updated_by, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 1)
        RETURNING `+companyColumns,
		s.ExternalID, s.Email, s.ShortName, s.LongName, s.TaxNumber, s.Country, s.City,
		s.PostalCode, s.Street, s.BuildingNumber, apartment, s.IsActive,
		s.IsDeleted, s.IsSystem, s.CreatedAt, s.UpdatedAt, s.DeletedAt, s.CreatedBy,
		nullableUUID(s.UpdatedBy))

	created, err := scanCompany(row)
	if err != nil {
		return nil, translatePgError(err, "insert company")
	}
	return created, nil
}

func (r *CompanyRepository) update(ctx context.Context, s company.Snapshot) (*company.Company, error) {
	apartment, err := nullableInt(s.ApartmentNumber)
	if err != nil {
		return nil, errors.Wrap(err, "update company")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE companies
           SET email = $1,
               short_name = $2,
               long_name = $3,
               tax_number = $4,
               country = $5,
               city = $6,
               postal_code = $7,
               street = $8,
               building_number = $9,
               apartment_number = $10,
               is_active = $11,
               is_deleted = $12,
               updated_at = $13,
               deleted_at = $14,
               updated_by = $15,
               version = version + 1
         WHERE id = $16
           AND version = $17
        RETURNING `+companyColumns,
		s.Email, s.ShortName, s.LongName, s.TaxNumber, s.Country, s.City, s.PostalCode,
		s.Street, s.BuildingNumber, apartment, s.IsActive, s.IsDeleted,
		s.UpdatedAt, s.DeletedAt, nullableUUID(s.UpdatedBy), s.ID, s.Version)

	updated, err := scanCompany(row)
	if errors.Is(err, company.ErrCompanyNotFound) {
		// 読み込み後に version が進んでいるか、行が消えている。
		return nil, company.ErrConcurrentModification
	}
	if err != nil {
		return nil, translatePgError(err, "update company")
	}
	return updated, nil
}

// FindByID は ID で会社を取得します。
func (r *CompanyRepository) FindByID(ctx context.Context, id int64) (*company.Company, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail はメールアドレスで会社を取得します。論理削除済みの会社も対象です。
func (r *CompanyRepository) FindByEmail(ctx context.Context, email string) (*company.Company, error) {
	return r.findOne(ctx, "email", email)
}

// FindByShortName は略称で会社を取得します。論理削除済みの会社も対象です。
func (r *CompanyRepository) FindByShortName(ctx context.Context, shortName string) (*company.Company, error) {
	return r.findOne(ctx, "short_name", shortName)
}

func (r *CompanyRepository) findOne(ctx context.Context, column string, value any) (*company.Company, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+companyColumns+`
          FROM companies
         WHERE `+column+` = $1
         LIMIT 1
    `, value)

	found, err := scanCompany(row)
	if err != nil {
		return nil, translatePgError(err, "find company by "+column)
	}
	return found, nil
}

// ListActive は有効かつ未削除の会社を ID 順に取得します。
func (r *CompanyRepository) ListActive(ctx context.Context, page company.Page) ([]*company.Company, string, error) {
	return r.list(ctx, "is_active AND NOT is_deleted", page)
}

// ListDeleted は論理削除済みの会社を ID 順に取得します。
func (r *CompanyRepository) ListDeleted(ctx context.Context, page company.Page) ([]*company.Company, string, error) {
	return r.list(ctx, "is_deleted", page)
}

func (r *CompanyRepository) list(ctx context.Context, where string, page company.Page) ([]*company.Company, string, error) {
	if page.Limit <= 0 {
		return nil, "", company.ErrInvalidPageSize
	}
	if page.Offset < 0 {
		return nil, "", company.ErrInvalidPageToken
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+companyColumns+`
          FROM companies
         WHERE `+where+`
         ORDER BY id
         LIMIT $1
        OFFSET $2
    `, page.Limit+1, page.Offset)
	if err != nil {
		return nil, "", translatePgError(err, "list companies")
	}
	defer rows.Close()

	companies := make([]*company.Company, 0, page.Limit)
	for rows.Next() {
		found, err := scanCompany(rows)
		if err != nil {
			return nil, "", translatePgError(err, "scan company")
		}
		companies = append(companies, found)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translatePgError(err, "list companies")
	}

	var nextToken string
	if len(companies) > page.Limit {
		nextToken = strconv.Itoa(page.Offset + page.Limit)
		companies = companies[:page.Limit]
	}

	return companies, nextToken, nil
}

func scanCompany(row pgx.Row) (*company.Company, error) {
	var (
		s               company.Snapshot
		apartmentNumber sql.NullInt32
		updatedAt       sql.NullTime
		deletedAt       sql.NullTime
		updatedBy       uuid.NullUUID
	)

	if err := row.Scan(
		&s.ID, &s.ExternalID, &s.Email, &s.ShortName, &s.LongName, &s.TaxNumber, &s.Country, &s.City,
		&s.PostalCode, &s.Street, &s.BuildingNumber, &apartmentNumber, &s.IsActive, &s.IsDeleted,
		&s.IsSystem, &s.CreatedAt, &updatedAt, &deletedAt, &s.CreatedBy, &updatedBy, &s.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, err
	}

	if apartmentNumber.Valid {
		n := int(apartmentNumber.Int32)
		s.ApartmentNumber = &n
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		s.UpdatedAt = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		s.DeletedAt = &t
	}
	if updatedBy.Valid {
		id := updatedBy.UUID
		s.UpdatedBy = &id
	}

	return company.Restore(s), nil
}

// translatePgError は一意制約違反を重複エラーに変換し、それ以外には操作名を付けて返します。
func translatePgError(err error, op string) error {
	if errors.Is(err, company.ErrCompanyNotFound) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return company.ErrDuplicateEmail
		case shortNameConstraint:
			return company.ErrDuplicateShortName
		}
	}
	return errors.Wrap(err, op)
}

// nullableInt は INTEGER 列に収まらない値を切り詰めずにエラーにします。
func nullableInt(value *int) (any, error) {
	if value == nil {
		return nil, nil
	}
	if *value < math.MinInt32 || *value > math.MaxInt32 {
		return nil, fmt.Errorf("apartment number %d overflows INTEGER", *value)
	}
	return int32(*value), nil
}

func nullableUUID(value *uuid.UUID) any {
	if value == nil {
		return nil
	}
	return *value
}
