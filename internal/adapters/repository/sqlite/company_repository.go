package sqlite

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	sqlitedb "github.com/ogurasousui/company-lifecycle/internal/platform/db/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// companyRecord は companies テーブルの行です。
type companyRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	ExternalID      string `gorm:"size:36;not null;uniqueIndex:companies_external_id_key"`
	Email           string `gorm:"not null;uniqueIndex:companies_email_key"`
	ShortName       string `gorm:"size:255;not null;uniqueIndex:companies_short_name_key"`
	LongName        string `gorm:"not null"`
	TaxNumber       string `gorm:"size:10;not null"`
	Country         string `gorm:"not null"`
	City            string `gorm:"not null"`
	PostalCode      string `gorm:"not null"`
	Street          string `gorm:"not null"`
	BuildingNumber  string `gorm:"not null"`
	ApartmentNumber *int
	IsActive        bool       `gorm:"not null;default:false"`
	IsDeleted       bool       `gorm:"not null;default:false"`
	IsSystem        bool       `gorm:"not null;default:false"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false"`
	DeletedAt       *time.Time
	CreatedBy       string  `gorm:"size:36;not null"`
	UpdatedBy       *string `gorm:"size:36"`
	Version         int64   `gorm:"not null"`
}

func (companyRecord) TableName() string {
	return "companies"
}

// CompanyRepository は gorm と SQLite を利用した会社永続化の実装です。
type CompanyRepository struct {
	db *gorm.DB
}

var _ company.Repository = (*CompanyRepository)(nil)

// NewCompanyRepository は CompanyRepository を生成します。
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Migrate は companies テーブルを作成します。
func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(&companyRecord{}), "migrate companies")
}

// Save は ID が 0 の会社を挿入し、それ以外はバージョンを照合して更新します。
func (r *CompanyRepository) Save(ctx context.Context, c *company.Company) (*company.Company, error) {
	db := sqlitedb.DBFromContext(ctx, r.db)
	rec := toRecord(c.Snapshot())

	if rec.ID == 0 {
		rec.Version = 1
		if err := db.Create(&rec).Error; err != nil {
			return nil, translateError(err, "insert company")
		}
		return toCompany(rec)
	}

	expected := rec.Version
	rec.Version++
	res := db.Model(&companyRecord{}).
		Where("id = ? AND version = ?", rec.ID, expected).
		Select("*").
		Omit("id", "external_id", "created_at", "created_by", "is_system").
		Updates(&rec)
	if res.Error != nil {
		return nil, translateError(res.Error, "update company")
	}
	if res.RowsAffected == 0 {
		return nil, company.ErrConcurrentModification
	}

	return r.FindByID(ctx, rec.ID)
}

// FindByID は ID で会社を取得します。
func (r *CompanyRepository) FindByID(ctx context.Context, id int64) (*company.Company, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail はメールアドレスで会社を取得します。論理削除済みの会社も対象です。
func (r *CompanyRepository) FindByEmail(ctx context.Context, email string) (*company.Company, error) {
	return r.findOne(ctx, "email = ?", email)
}

// FindByShortName は略称で会社を取得します。論理削除済みの会社も対象です。
func (r *CompanyRepository) FindByShortName(ctx context.Context, shortName string) (*company.Company, error) {
	return r.findOne(ctx, "short_name = ?", shortName)
}

func (r *CompanyRepository) findOne(ctx context.Context, query string, arg any) (*company.Company, error) {
	var rec companyRecord
	err := sqlitedb.DBFromContext(ctx, r.db).Where(query, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, company.ErrCompanyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find company")
	}
	return toCompany(rec)
}

// ListActive は有効かつ未削除の会社を ID 順に取得します。
func (r *CompanyRepository) ListActive(ctx context.Context, page company.Page) ([]*company.Company, string, error) {
	return r.list(ctx, page, "is_active = ? AND is_deleted = ?", true, false)
}

// ListDeleted は論理削除済みの会社を ID 順に取得します。
func (r *CompanyRepository) ListDeleted(ctx context.Context, page company.Page) ([]*company.Company, string, error) {
	return r.list(ctx, page, "is_deleted = ?", true)
}

func (r *CompanyRepository) list(ctx context.Context, page company.Page, query string, args ...any) ([]*company.Company, string, error) {
	if page.Limit <= 0 {
		return nil, "", company.ErrInvalidPageSize
	}
	if page.Offset < 0 {
		return nil, "", company.ErrInvalidPageToken
	}

	var recs []companyRecord
	err := sqlitedb.DBFromContext(ctx, r.db).
		Where(query, args...).
		Order("id").
		Limit(page.Limit + 1).
		Offset(page.Offset).
		Find(&recs).Error
	if err != nil {
		return nil, "", errors.Wrap(err, "list companies")
	}

	var nextToken string
	if len(recs) > page.Limit {
		nextToken = strconv.Itoa(page.Offset + page.Limit)
		recs = recs[:page.Limit]
	}

	companies := make([]*company.Company, 0, len(recs))
	for _, rec := range recs {
		c, err := toCompany(rec)
		if err != nil {
			return nil, "", err
		}
		companies = append(companies, c)
	}
	return companies, nextToken, nil
}

// translateError は SQLite の一意制約違反を重複エラーに変換します。
// ドライバはエラーメッセージに制約違反の列名を含めます。
func translateError(err error, op string) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "companies.email"):
			return company.ErrDuplicateEmail
		case strings.Contains(msg, "companies.short_name"):
			return company.ErrDuplicateShortName
		}
	}
	return errors.Wrap(err, op)
}

func toRecord(s company.Snapshot) companyRecord {
	rec := companyRecord{
		ID:              s.ID,
		ExternalID:      s.ExternalID.String(),
		Email:           s.Email,
		ShortName:       s.ShortName,
		LongName:        s.LongName,
		TaxNumber:       s.TaxNumber,
		Country:         s.Country,
		City:            s.City,
		PostalCode:      s.PostalCode,
		Street:          s.Street,
		BuildingNumber:  s.BuildingNumber,
		ApartmentNumber: s.ApartmentNumber,
		IsActive:        s.IsActive,
		IsDeleted:       s.IsDeleted,
		IsSystem:        s.IsSystem,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		DeletedAt:       s.DeletedAt,
		CreatedBy:       s.CreatedBy.String(),
		Version:         s.Version,
	}
	if s.UpdatedBy != nil {
		by := s.UpdatedBy.String()
		rec.UpdatedBy = &by
	}
	return rec
}

func toCompany(rec companyRecord) (*company.Company, error) {
	externalID, err := uuid.Parse(rec.ExternalID)
	if err != nil {
		return nil, errors.Wrapf(err, "company %d: external_id", rec.ID)
	}
	createdBy, err := uuid.Parse(rec.CreatedBy)
	if err != nil {
		return nil, errors.Wrapf(err, "company %d: created_by", rec.ID)
	}

	s := company.Snapshot{
		ID:              rec.ID,
		ExternalID:      externalID,
		Email:           rec.Email,
		ShortName:       rec.ShortName,
		LongName:        rec.LongName,
		TaxNumber:       rec.TaxNumber,
		Country:         rec.Country,
		City:            rec.City,
		PostalCode:      rec.PostalCode,
		Street:          rec.Street,
		BuildingNumber:  rec.BuildingNumber,
		ApartmentNumber: rec.ApartmentNumber,
		IsActive:        rec.IsActive,
		IsDeleted:       rec.IsDeleted,
		IsSystem:        rec.IsSystem,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		DeletedAt:       rec.DeletedAt,
		CreatedBy:       createdBy,
		Version:         rec.Version,
	}
	if rec.UpdatedBy != nil {
		updatedBy, err := uuid.Parse(*rec.UpdatedBy)
		if err != nil {
			return nil, errors.Wrapf(err, "company %d: updated_by", rec.ID)
		}
		s.UpdatedBy = &updatedBy
	}
	return company.Restore(s), nil
}
