package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/service"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTenderService struct {
	page      *entity.TenderPage
	tender    *entity.TenderReadModel
	err       error
	gotParams *entity.TenderQueryParams
	gotId     string
}

func (s *stubTenderService) GetTenders(ctx context.Context, params *entity.TenderQueryParams) (*entity.TenderPage, error) {
	s.gotParams = params
	return s.page, s.err
}

func (s *stubTenderService) GetTenderById(ctx context.Context, id string) (*entity.TenderReadModel, error) {
	s.gotId = id
	return s.tender, s.err
}

type stubProgress struct {
	left time.Duration
}

func (s stubProgress) TimeLeft() time.Duration { return s.left }

func newTestServer(tenderService service.Tender, progress LoadProgress) *echo.Echo {
	e := echo.New()
	services := &service.Services{Tender: tenderService}
	validate := validator.New(validator.WithRequiredStructEnabled())
	newTenderRoutesHandler(e.Group("/api"), services, validate, progress)

	return e
}

func doRequest(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestGetTendersUnavailableWhileLoading(t *testing.T) {
	stub := &stubTenderService{}
	e := newTestServer(stub, stubProgress{left: 90 * time.Second})

	rec := doRequest(e, "/api/tenders")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "load all tenders first")
	assert.Nil(t, stub.gotParams)
}

func TestGetTenderByIdAlsoGated(t *testing.T) {
	stub := &stubTenderService{}
	e := newTestServer(stub, stubProgress{left: time.Second})

	rec := doRequest(e, "/api/tenders/000001")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, stub.gotId)
}

func TestGetTendersOk(t *testing.T) {
	stub := &stubTenderService{page: &entity.TenderPage{
		Data:     []entity.TenderReadModel{{Id: "000001", Title: "Road works"}},
		Page:     1,
		PageSize: 100,
		Total:    1,
	}}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders")

	require.Equal(t, http.StatusOK, rec.Code)

	var page entity.TenderPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "000001", page.Data[0].Id)
	assert.Equal(t, 1, page.Total)
}

func TestGetTendersPassesParamsThrough(t *testing.T) {
	stub := &stubTenderService{page: &entity.TenderPage{}}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders?Page=2&PageSize=5&SupplierId=7"+
		"&SortField=Date&SortDescending=true&DateFrom=2025-01-01"+
		"&DateTo=2025-02-01T00:00:00Z&AwardedValueInEuroFrom=100.50")

	require.Equal(t, http.StatusOK, rec.Code)
	params := stub.gotParams
	require.NotNil(t, params)
	require.NotNil(t, params.Page)
	assert.Equal(t, 2, *params.Page)
	require.NotNil(t, params.PageSize)
	assert.Equal(t, 5, *params.PageSize)
	require.NotNil(t, params.SupplierId)
	assert.Equal(t, 7, *params.SupplierId)
	assert.Equal(t, entity.SortByDate, params.SortField)
	assert.True(t, params.SortDescending)
	require.NotNil(t, params.DateFrom)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *params.DateFrom)
	require.NotNil(t, params.DateTo)
	require.NotNil(t, params.AwardedValueInEuroFrom)
	assert.True(t, params.AwardedValueInEuroFrom.Equal(decimal.RequireFromString("100.50")))
	assert.Nil(t, params.AwardedValueInEuroTo)
	assert.Nil(t, params.PageAfter)
}

func TestGetTendersCursorParam(t *testing.T) {
	stub := &stubTenderService{page: &entity.TenderPage{}}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders?PageAfter=000042")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.gotParams.PageAfter)
	assert.Equal(t, "000042", *stub.gotParams.PageAfter)
}

func TestGetTendersRejectsUnknownSortField(t *testing.T) {
	stub := &stubTenderService{}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders?SortField=Title")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SortField")
	assert.Nil(t, stub.gotParams)
}

func TestGetTendersRejectsNonNumericPage(t *testing.T) {
	stub := &stubTenderService{}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders?Page=two")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, stub.gotParams)
}

func TestGetTendersRejectsMalformedDate(t *testing.T) {
	stub := &stubTenderService{}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders?DateFrom=yesterday")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, stub.gotParams)
}

func TestGetTenderByIdOk(t *testing.T) {
	stub := &stubTenderService{tender: &entity.TenderReadModel{Id: "000001", Title: "Road works"}}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders/000001")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "000001", stub.gotId)
	assert.Contains(t, rec.Body.String(), "Road works")
}

func TestGetTenderByIdNotFound(t *testing.T) {
	stub := &stubTenderService{err: service.ErrTenderNotFound}
	e := newTestServer(stub, stubProgress{})

	rec := doRequest(e, "/api/tenders/999999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}
