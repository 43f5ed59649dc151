package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUseCase struct {
	mock.Mock
}

func (m *mockUseCase) CreateCompany(ctx context.Context, in company.CreateCompanyInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) UpdateCompany(ctx context.Context, in company.UpdateCompanyInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) ToggleCompanyActive(ctx context.Context, in company.ToggleCompanyActiveInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) DeleteCompany(ctx context.Context, in company.DeleteCompanyInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) GetCompany(ctx context.Context, in company.GetCompanyInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) FindCompanyByShortName(ctx context.Context, in company.FindCompanyByShortNameInput) (*company.Company, error) {
	args := m.Called(ctx, in)
	return companyArg(args, 0), args.Error(1)
}

func (m *mockUseCase) ListActiveCompanies(ctx context.Context, in company.ListCompaniesInput) (*company.ListCompaniesResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*company.ListCompaniesResult)
	return result, args.Error(1)
}

func (m *mockUseCase) ListDeletedCompanies(ctx context.Context, in company.ListCompaniesInput) (*company.ListCompaniesResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*company.ListCompaniesResult)
	return result, args.Error(1)
}

func companyArg(args mock.Arguments, i int) *company.Company {
	c, _ := args.Get(i).(*company.Company)
	return c
}

type stubVerifier struct {
	actor uuid.UUID
}

func (s stubVerifier) VerifyHeader(header string) (uuid.UUID, error) {
	if header == "" {
		return uuid.Nil, auth.ErrMissingToken
	}
	if header != "Bearer good" {
		return uuid.Nil, auth.ErrInvalidToken
	}
	return s.actor, nil
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func storedCompany(id int64, shortName string) *company.Company {
	return company.Restore(company.Snapshot{
		ID:             id,
		ExternalID:     uuid.New(),
		Email:          strings.ToLower(shortName) + "@b.com",
		ShortName:      shortName,
		LongName:       shortName + " Inc",
		TaxNumber:      "1234567890",
		Country:        "PL",
		City:           "Warsaw",
		PostalCode:     "00-001",
		Street:         "Main",
		BuildingNumber: "1",
		IsActive:       true,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:      uuid.New(),
		Version:        1,
	})
}

const validBody = `{"email":"a@b.com","shortName":"AB","longName":"ABC Inc","taxNumber":"1234567890","country":"PL","city":"Warsaw","postalCode":"00-001","street":"Main","buildingNumber":"1","isActive":true}`

func newTestRouter(svc company.UseCase, actor uuid.UUID) http.Handler {
	return NewRouter(NewHandler(svc, zerolog.Nop()), NewHealthHandler(pingStub{}), stubVerifier{actor: actor}, zerolog.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate_PassesActorAndFields(t *testing.T) {
	svc := new(mockUseCase)
	actor := uuid.New()
	router := newTestRouter(svc, actor)
	created := storedCompany(1, "AB")

	svc.On("CreateCompany", mock.Anything, mock.MatchedBy(func(in company.CreateCompanyInput) bool {
		return in.ActorID == actor && in.Fields.Email == "a@b.com" && in.Fields.TaxNumber == "1234567890" && in.Fields.IsActive
	})).Return(created, nil)

	rec := do(t, router, http.MethodPost, "/companies", validBody, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CompanyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ExternalID(), resp.ExternalID)
	assert.Equal(t, "AB", resp.ShortName)
	assert.False(t, resp.IsDeleted)
	svc.AssertExpectations(t)
}

func TestCreate_ValidationErrorDoesNotReachService(t *testing.T) {
	svc := new(mockUseCase)
	router := newTestRouter(svc, uuid.New())

	rec := do(t, router, http.MethodPost, "/companies", `{"email":"bad","taxNumber":"1"}`, true)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_email", resp.Violations["email"])
	assert.Equal(t, "invalid_length", resp.Violations["taxNumber"])
	assert.Equal(t, "required", resp.Violations["city"])
	svc.AssertNotCalled(t, "CreateCompany", mock.Anything, mock.Anything)
}

func TestMutations_RequireBearerToken(t *testing.T) {
	svc := new(mockUseCase)
	router := newTestRouter(svc, uuid.New())

	rec := do(t, router, http.MethodPost, "/companies", validBody, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing bearer token")

	req := httptest.NewRequest(http.MethodDelete, "/companies/1", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid bearer token")

	svc.AssertNotCalled(t, "CreateCompany", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "DeleteCompany", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "duplicate email", err: company.ErrDuplicateEmail, want: http.StatusConflict},
		{name: "duplicate short name", err: company.ErrDuplicateShortName, want: http.StatusConflict},
		{name: "deleted", err: company.ErrCompanyDeleted, want: http.StatusConflict},
		{name: "conflict", err: company.ErrConcurrentModification, want: http.StatusConflict},
		{name: "not found", err: company.ErrCompanyNotFound, want: http.StatusNotFound},
		{name: "persistence", err: &company.PersistenceError{Op: "save", Err: errors.New("disk full")}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockUseCase)
			router := newTestRouter(svc, uuid.New())
			svc.On("UpdateCompany", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := do(t, router, http.MethodPut, "/companies/2", validBody, true)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "disk full")
			}
		})
	}
}

func TestToggleAndDelete_UsePathID(t *testing.T) {
	svc := new(mockUseCase)
	actor := uuid.New()
	router := newTestRouter(svc, actor)

	svc.On("ToggleCompanyActive", mock.Anything, company.ToggleCompanyActiveInput{ID: 7, ActorID: actor}).Return(storedCompany(7, "T"), nil)
	svc.On("DeleteCompany", mock.Anything, company.DeleteCompanyInput{ID: 7, ActorID: actor}).Return(storedCompany(7, "T"), nil)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/companies/7/toggle-active", "", true).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodDelete, "/companies/7", "", true).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodDelete, "/companies/abc", "", true).Code)
	svc.AssertExpectations(t)
}

func TestGetAndLists(t *testing.T) {
	svc := new(mockUseCase)
	router := newTestRouter(svc, uuid.New())

	svc.On("GetCompany", mock.Anything, company.GetCompanyInput{ID: 3}).Return(storedCompany(3, "G"), nil)
	svc.On("ListActiveCompanies", mock.Anything, company.ListCompaniesInput{PageSize: 2, PageToken: "4"}).
		Return(&company.ListCompaniesResult{Companies: []*company.Company{storedCompany(5, "A5"), storedCompany(6, "A6")}, NextPageToken: "6"}, nil)
	svc.On("ListDeletedCompanies", mock.Anything, company.ListCompaniesInput{}).
		Return(&company.ListCompaniesResult{Companies: []*company.Company{}}, nil)

	rec := do(t, router, http.MethodGet, "/companies/3", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"shortName":"G"`)

	rec = do(t, router, http.MethodGet, "/companies/active?pageSize=2&pageToken=4", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Companies, 2)
	assert.Equal(t, "6", list.NextPageToken)

	rec = do(t, router, http.MethodGet, "/companies/deleted", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"companies":[]}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/companies/active?pageSize=many", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestOptions_WalksAllPages(t *testing.T) {
	svc := new(mockUseCase)
	router := newTestRouter(svc, uuid.New())
	first, second := storedCompany(1, "O1"), storedCompany(2, "O2")

	svc.On("ListActiveCompanies", mock.Anything, company.ListCompaniesInput{PageSize: optionsPageSize}).
		Return(&company.ListCompaniesResult{Companies: []*company.Company{first}, NextPageToken: "1"}, nil)
	svc.On("ListActiveCompanies", mock.Anything, company.ListCompaniesInput{PageSize: optionsPageSize, PageToken: "1"}).
		Return(&company.ListCompaniesResult{Companies: []*company.Company{second}}, nil)

	rec := do(t, router, http.MethodGet, "/companies/options", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	var options []OptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &options))
	require.Len(t, options, 2)
	assert.Equal(t, first.ExternalID(), options[0].ExternalID)
	assert.Equal(t, "O2 Inc", options[1].LongName)
}

func TestCheck_IsPublic(t *testing.T) {
	svc := new(mockUseCase)
	router := newTestRouter(svc, uuid.New())
	found := storedCompany(9, "CHK")

	svc.On("FindCompanyByShortName", mock.Anything, company.FindCompanyByShortNameInput{ShortName: "CHK"}).Return(found, nil)
	svc.On("FindCompanyByShortName", mock.Anything, company.FindCompanyByShortNameInput{ShortName: "NONE"}).Return(nil, company.ErrCompanyNotFound)

	rec := do(t, router, http.MethodPost, "/companies/check", `{"shortName":"CHK"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, found.ExternalID(), resp.ExternalID)
	assert.Equal(t, "CHK", resp.ShortName)

	rec = do(t, router, http.MethodPost, "/companies/check", `{"shortName":"NONE"}`, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	svc := new(mockUseCase)
	healthy := NewRouter(NewHandler(svc, zerolog.Nop()), NewHealthHandler(pingStub{}), stubVerifier{}, zerolog.Nop())
	unhealthy := NewRouter(NewHandler(svc, zerolog.Nop()), NewHealthHandler(PingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})), stubVerifier{}, zerolog.Nop())

	assert.Equal(t, http.StatusOK, do(t, healthy, http.MethodGet, "/health/live", "", false).Code)
	assert.Equal(t, http.StatusOK, do(t, healthy, http.MethodGet, "/health/ready", "", false).Code)

	rec := do(t, unhealthy, http.MethodGet, "/health/ready", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
