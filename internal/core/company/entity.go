package company

import (
	"time"

	"github.com/google/uuid"
)

// Company は会社エンティティです。
// フィールドは非公開で、状態遷移は Activate / Deactivate / SoftDelete と
// Service による Fields のコピーのみで行われます。
type Company struct {
	id              int64
	externalID      uuid.UUID
	email           string
	shortName       string
	longName        string
	taxNumber       string
	country         string
	city            string
	postalCode      string
	street          string
	buildingNumber  string
	apartmentNumber *int
	isActive        bool
	isDeleted       bool
	isSystem        bool
	createdAt       time.Time
	updatedAt       *time.Time
	deletedAt       *time.Time
	createdBy       uuid.UUID
	updatedBy       *uuid.UUID
	version         int64
}

// Fields は会社の書き込み可能な属性です。入力検証済みであることを前提とします。
type Fields struct {
	Email           string
	ShortName       string
	LongName        string
	TaxNumber       string
	Country         string
	City            string
	PostalCode      string
	Street          string
	BuildingNumber  string
	ApartmentNumber *int
	IsActive        bool
}

// Snapshot は永続化アダプタとの受け渡しに使う会社の全属性です。
type Snapshot struct {
	ID              int64
	ExternalID      uuid.UUID
	Email           string
	ShortName       string
	LongName        string
	TaxNumber       string
	Country         string
	City            string
	PostalCode      string
	Street          string
	BuildingNumber  string
	ApartmentNumber *int
	IsActive        bool
	IsDeleted       bool
	IsSystem        bool
	CreatedAt       time.Time
	UpdatedAt       *time.Time
	DeletedAt       *time.Time
	CreatedBy       uuid.UUID
	UpdatedBy       *uuid.UUID
	Version         int64
}

func newCompany(f Fields, actor uuid.UUID, now time.Time) *Company {
	c := &Company{
		externalID: uuid.New(),
		createdAt:  now,
		createdBy:  actor,
		isDeleted:  false,
	}
	c.assign(f)
	return c
}

// Restore はスナップショットから会社を復元します。永続化アダプタ専用です。
func Restore(s Snapshot) *Company {
	return &Company{
		id:              s.ID,
		externalID:      s.ExternalID,
		email:           s.Email,
		shortName:       s.ShortName,
		longName:        s.LongName,
		taxNumber:       s.TaxNumber,
		country:         s.Country,
		city:            s.City,
		postalCode:      s.PostalCode,
		street:          s.Street,
		buildingNumber:  s.BuildingNumber,
		apartmentNumber: copyInt(s.ApartmentNumber),
		isActive:        s.IsActive,
		isDeleted:       s.IsDeleted,
		isSystem:        s.IsSystem,
		createdAt:       s.CreatedAt,
		updatedAt:       copyTime(s.UpdatedAt),
		deletedAt:       copyTime(s.DeletedAt),
		createdBy:       s.CreatedBy,
		updatedBy:       copyUUID(s.UpdatedBy),
		version:         s.Version,
	}
}

// Snapshot は会社の現在の状態をコピーして返します。
func (c *Company) Snapshot() Snapshot {
	return Snapshot{
		ID:              c.id,
		ExternalID:      c.externalID,
		Email:           c.email,
		ShortName:       c.shortName,
		LongName:        c.longName,
		TaxNumber:       c.taxNumber,
		Country:         c.country,
		City:            c.city,
		PostalCode:      c.postalCode,
		Street:          c.street,
		BuildingNumber:  c.buildingNumber,
		ApartmentNumber: copyInt(c.apartmentNumber),
		IsActive:        c.isActive,
		IsDeleted:       c.isDeleted,
		IsSystem:        c.isSystem,
		CreatedAt:       c.createdAt,
		UpdatedAt:       copyTime(c.updatedAt),
		DeletedAt:       copyTime(c.deletedAt),
		CreatedBy:       c.createdBy,
		UpdatedBy:       copyUUID(c.updatedBy),
		Version:         c.version,
	}
}

// Activate は会社を有効化します。有効状態でも更新者と更新日時は記録されます。
func (c *Company) Activate(actor uuid.UUID, now time.Time) error {
	if c.isDeleted {
		return ErrCompanyDeleted
	}
	c.isActive = true
	c.touch(actor, now)
	return nil
}

// Deactivate は会社を無効化します。
func (c *Company) Deactivate(actor uuid.UUID, now time.Time) error {
	if c.isDeleted {
		return ErrCompanyDeleted
	}
	c.isActive = false
	c.touch(actor, now)
	return nil
}

// SoftDelete は会社を論理削除します。削除済みの会社は元に戻せません。
func (c *Company) SoftDelete(actor uuid.UUID, now time.Time) error {
	if c.isDeleted {
		return ErrCompanyDeleted
	}
	c.isDeleted = true
	c.isActive = false
	deletedAt := now
	c.deletedAt = &deletedAt
	c.touch(actor, now)
	return nil
}

func (c *Company) update(f Fields, actor uuid.UUID, now time.Time) error {
	if c.isDeleted {
		return ErrCompanyDeleted
	}
	c.assign(f)
	c.touch(actor, now)
	return nil
}

func (c *Company) assign(f Fields) {
	c.email = f.Email
	c.shortName = f.ShortName
	c.longName = f.LongName
	c.taxNumber = f.TaxNumber
	c.country = f.Country
	c.city = f.City
	c.postalCode = f.PostalCode
	c.street = f.Street
	c.buildingNumber = f.BuildingNumber
	c.apartmentNumber = copyInt(f.ApartmentNumber)
	c.isActive = f.IsActive
}

// touch は更新者と更新日時を同時に記録します。
func (c *Company) touch(actor uuid.UUID, now time.Time) {
	updatedAt := now
	updatedBy := actor
	c.updatedAt = &updatedAt
	c.updatedBy = &updatedBy
}

func (c *Company) ID() int64              { return c.id }
func (c *Company) ExternalID() uuid.UUID  { return c.externalID }
func (c *Company) Email() string          { return c.email }
func (c *Company) ShortName() string      { return c.shortName }
func (c *Company) LongName() string       { return c.longName }
func (c *Company) TaxNumber() string      { return c.taxNumber }
func (c *Company) Country() string        { return c.country }
func (c *Company) City() string           { return c.city }
func (c *Company) PostalCode() string     { return c.postalCode }
func (c *Company) Street() string         { return c.street }
func (c *Company) BuildingNumber() string { return c.buildingNumber }
func (c *Company) ApartmentNumber() *int  { return copyInt(c.apartmentNumber) }
func (c *Company) IsActive() bool         { return c.isActive }
func (c *Company) IsDeleted() bool        { return c.isDeleted }
func (c *Company) IsSystem() bool         { return c.isSystem }
func (c *Company) CreatedAt() time.Time   { return c.createdAt }
func (c *Company) UpdatedAt() *time.Time  { return copyTime(c.updatedAt) }
func (c *Company) DeletedAt() *time.Time  { return copyTime(c.deletedAt) }
func (c *Company) CreatedBy() uuid.UUID   { return c.createdBy }
func (c *Company) UpdatedBy() *uuid.UUID  { return copyUUID(c.updatedBy) }
func (c *Company) Version() int64         { return c.version }

// Fields は現在の書き込み可能な属性を返します。
func (c *Company) Fields() Fields {
	return Fields{
		Email:           c.email,
		ShortName:       c.shortName,
		LongName:        c.longName,
		TaxNumber:       c.taxNumber,
		Country:         c.country,
		City:            c.city,
		PostalCode:      c.postalCode,
		Street:          c.street,
		BuildingNumber:  c.buildingNumber,
		ApartmentNumber: copyInt(c.apartmentNumber),
		IsActive:        c.isActive,
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}

func copyUUID(v *uuid.UUID) *uuid.UUID {
	if v == nil {
		return nil
	}
	id := *v
	return &id
}
