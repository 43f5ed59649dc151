package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
)

// CompanyRequest は会社の作成・更新リクエストです。更新時も全属性を送ります。
type CompanyRequest struct {
	Email           string `json:"email"`
	ShortName       string `json:"shortName"`
	LongName        string `json:"longName"`
	TaxNumber       string `json:"taxNumber"`
	Country         string `json:"country"`
	City            string `json:"city"`
	PostalCode      string `json:"postalCode"`
	Street          string `json:"street"`
	BuildingNumber  string `json:"buildingNumber"`
	ApartmentNumber *int   `json:"apartmentNumber,omitempty"`
	IsActive        bool   `json:"isActive"`
}

func (r CompanyRequest) fields() company.Fields {
	return company.Fields{
		Email:           r.Email,
		ShortName:       r.ShortName,
		LongName:        r.LongName,
		TaxNumber:       r.TaxNumber,
		Country:         r.Country,
		City:            r.City,
		PostalCode:      r.PostalCode,
		Street:          r.Street,
		BuildingNumber:  r.BuildingNumber,
		ApartmentNumber: r.ApartmentNumber,
		IsActive:        r.IsActive,
	}
}

// CompanyResponse は会社の全属性を返すレスポンスです。
type CompanyResponse struct {
	ID              int64      `json:"id"`
	ExternalID      uuid.UUID  `json:"externalId"`
	Email           string     `json:"email"`
	ShortName       string     `json:"shortName"`
	LongName        string     `json:"longName"`
	TaxNumber       string     `json:"taxNumber"`
	Country         string     `json:"country"`
	City            string     `json:"city"`
	PostalCode      string     `json:"postalCode"`
	Street          string     `json:"street"`
	BuildingNumber  string     `json:"buildingNumber"`
	ApartmentNumber *int       `json:"apartmentNumber"`
	IsActive        bool       `json:"isActive"`
	IsDeleted       bool       `json:"isDeleted"`
	IsSystem        bool       `json:"isSystem"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt"`
	CreatedBy       uuid.UUID  `json:"createdBy"`
	UpdatedBy       *uuid.UUID `json:"updatedBy"`
}

func toResponse(c *company.Company) CompanyResponse {
	s := c.Snapshot()
	return CompanyResponse{
		ID:              s.ID,
		ExternalID:      s.ExternalID,
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
		CreatedBy:       s.CreatedBy,
		UpdatedBy:       s.UpdatedBy,
	}
}

// ListResponse は一覧レスポンスです。
type ListResponse struct {
	Companies     []CompanyResponse `json:"companies"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

// OptionResponse は選択肢用の有効な会社です。
type OptionResponse struct {
	ExternalID uuid.UUID `json:"externalId"`
	LongName   string    `json:"longName"`
}

// CheckRequest は略称による会社確認のリクエストです。
type CheckRequest struct {
	ShortName string `json:"shortName"`
}

// CheckResponse は略称による会社確認の結果です。
type CheckResponse struct {
	ShortName  string    `json:"shortName"`
	ExternalID uuid.UUID `json:"externalId"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error      string            `json:"error"`
	Violations map[string]string `json:"violations,omitempty"`
}
