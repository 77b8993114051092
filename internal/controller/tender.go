package controller

import (
	"errors"
	"net/http"
	"strconv"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/service"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
)

type tenderRoutesHandler struct {
	tenderService service.Tender
	validate      *validator.Validate
}

func newTenderRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate, progress LoadProgress) *tenderRoutesHandler {
	h := &tenderRoutesHandler{tenderService: services.Tender, validate: v}

	tenders := outer.Group("/tenders", unavailableWhileLoading(progress))
	tenders.GET("", h.GetTenders)
	tenders.GET("/:id", h.GetTenderById)

	return h
}

// Everything binds as a string and is converted after validation: the
// fields are all optional and absence must stay distinguishable from a
// zero value.
type getTendersInput struct {
	Page                   string `query:"Page" validate:"omitempty,number"`
	PageSize               string `query:"PageSize" validate:"omitempty,number"`
	PageAfter              string `query:"PageAfter"`
	DateFrom               string `query:"DateFrom"`
	DateTo                 string `query:"DateTo"`
	SupplierId             string `query:"SupplierId" validate:"omitempty,number"`
	AwardedValueInEuroFrom string `query:"AwardedValueInEuroFrom" validate:"omitempty,numeric"`
	AwardedValueInEuroTo   string `query:"AwardedValueInEuroTo" validate:"omitempty,numeric"`
	SortField              string `query:"SortField" validate:"omitempty,oneof=Id Date AwardedValueInEuro"`
	SortDescending         string `query:"SortDescending" validate:"omitempty,oneof=true false"`
}

// /tenders
func (h *tenderRoutesHandler) GetTenders(c echo.Context) error {
	var input getTendersInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	params, err := input.toQueryParams()
	if err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{err.Error()}); e != nil {
			return e
		}

		return err
	}

	page, err := h.tenderService.GetTenders(c.Request().Context(), params)
	if err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Failed to query tenders"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, page)
}

// /tenders/:id
func (h *tenderRoutesHandler) GetTenderById(c echo.Context) error {
	tender, err := h.tenderService.GetTenderById(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTenderNotFound) {
			if e := c.JSON(http.StatusNotFound, errorResponse{err.Error()}); e != nil {
				return e
			}

			return err
		}

		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Failed to query tender"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, tender)
}

func (in *getTendersInput) toQueryParams() (*entity.TenderQueryParams, error) {
	params := &entity.TenderQueryParams{
		SortField:      entity.SortField(in.SortField),
		SortDescending: in.SortDescending == "true",
	}

	// Validated as numbers already, Atoi cannot fail here.
	if in.Page != "" {
		page, _ := strconv.Atoi(in.Page)
		params.Page = &page
	}
	if in.PageSize != "" {
		pageSize, _ := strconv.Atoi(in.PageSize)
		params.PageSize = &pageSize
	}
	if in.PageAfter != "" {
		params.PageAfter = &in.PageAfter
	}
	if in.SupplierId != "" {
		supplierId, _ := strconv.Atoi(in.SupplierId)
		params.SupplierId = &supplierId
	}

	if in.DateFrom != "" {
		from, err := parseDate(in.DateFrom)
		if err != nil {
			return nil, err
		}
		params.DateFrom = &from
	}
	if in.DateTo != "" {
		to, err := parseDate(in.DateTo)
		if err != nil {
			return nil, err
		}
		params.DateTo = &to
	}

	if in.AwardedValueInEuroFrom != "" {
		from, err := decimal.NewFromString(in.AwardedValueInEuroFrom)
		if err != nil {
			return nil, err
		}
		params.AwardedValueInEuroFrom = &from
	}
	if in.AwardedValueInEuroTo != "" {
		to, err := decimal.NewFromString(in.AwardedValueInEuroTo)
		if err != nil {
			return nil, err
		}
		params.AwardedValueInEuroTo = &to
	}

	return params, nil
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}

	return time.Parse("2006-01-02", value)
}
