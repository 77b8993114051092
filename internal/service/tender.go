package service

import (
	"context"
	"errors"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/repo"
	"tender-aggregator-api/internal/repo/repo_errors"
	"time"

	"github.com/shopspring/decimal"
)

// The maximum page size is 100 - default to 100 when not provided.
const maxPageSize = 100

type TenderService struct {
	tenderRepo repo.Tender
}

func NewTenderService(repos *repo.Repositories) *TenderService {
	return &TenderService{tenderRepo: repos.Tender}
}

// GetTenders runs the listing query: optional criteria AND-composed,
// single sort key, and one of two page modes. PageAfter selects cursor
// mode; otherwise Page/PageSize select offset mode. Total is always a
// separate count over the filtered set - in cursor mode the cursor
// predicate is part of that set, so total counts what is left after the
// cursor.
func (s *TenderService) GetTenders(ctx context.Context, params *entity.TenderQueryParams) (*entity.TenderPage, error) {
	pageSize := maxPageSize
	if params.PageSize != nil && *params.PageSize < maxPageSize {
		pageSize = *params.PageSize
	}

	sort := params.SortField
	if sort == "" {
		sort = entity.SortById
	}

	criteria := buildCriteria(params)
	cursorMode := params.PageAfter != nil
	if cursorMode {
		criteria = append(criteria, cursorCriterion(sort, *params.PageAfter))
	}

	total, err := s.tenderRepo.CountTenders(ctx, criteria)
	if err != nil {
		return nil, err
	}

	query := &entity.TenderQuery{
		Criteria: criteria,
		Sort:     sort,
		Desc:     params.SortDescending,
		Limit:    pageSize,
	}

	page := 1
	if !cursorMode {
		if params.Page != nil && *params.Page > 1 {
			page = *params.Page
		}
		query.Offset = (page - 1) * pageSize
	}

	tenders, err := s.tenderRepo.QueryTenders(ctx, query)
	if err != nil {
		return nil, err
	}

	data := make([]entity.TenderReadModel, 0, len(tenders))
	for i := range tenders {
		data = append(data, entity.MapTenderReadModel(&tenders[i]))
	}

	result := &entity.TenderPage{Data: data, PageSize: pageSize, Total: total}
	if cursorMode {
		if len(data) > 0 {
			result.NextPageAfter = formatCursor(sort, &data[len(data)-1])
		}
	} else {
		result.Page = page
	}

	return result, nil
}

func (s *TenderService) GetTenderById(ctx context.Context, id string) (*entity.TenderReadModel, error) {
	tender, err := s.tenderRepo.GetTenderById(ctx, id)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrTenderNotFound
		}

		return nil, err
	}

	readModel := entity.MapTenderReadModel(tender)

	return &readModel, nil
}

func buildCriteria(params *entity.TenderQueryParams) []entity.Criterion {
	criteria := make([]entity.Criterion, 0)
	if params.SupplierId != nil {
		criteria = append(criteria, entity.Criterion{Field: entity.FieldSupplierId, Op: entity.OpEq, Value: *params.SupplierId})
	}
	if params.DateFrom != nil {
		criteria = append(criteria, entity.Criterion{Field: entity.FieldDate, Op: entity.OpGte, Value: *params.DateFrom})
	}
	if params.DateTo != nil {
		criteria = append(criteria, entity.Criterion{Field: entity.FieldDate, Op: entity.OpLte, Value: *params.DateTo})
	}
	if params.AwardedValueInEuroFrom != nil {
		criteria = append(criteria, entity.Criterion{Field: entity.FieldAwardedValue, Op: entity.OpGte, Value: *params.AwardedValueInEuroFrom})
	}
	if params.AwardedValueInEuroTo != nil {
		criteria = append(criteria, entity.Criterion{Field: entity.FieldAwardedValue, Op: entity.OpLte, Value: *params.AwardedValueInEuroTo})
	}

	return criteria
}

// cursorCriterion parses the cursor by the active sort field's type and
// turns it into a strict greater-than predicate. A cursor that does not
// parse degenerates to a match-nothing predicate: the caller gets a
// well-formed empty page, never a parse error.
func cursorCriterion(sort entity.SortField, after string) entity.Criterion {
	switch sort {
	case entity.SortByDate:
		if ts, err := time.Parse(time.RFC3339, after); err == nil {
			return entity.Criterion{Field: entity.FieldDate, Op: entity.OpGt, Value: ts}
		}
	case entity.SortByAwardedValue:
		if value, err := decimal.NewFromString(after); err == nil {
			return entity.Criterion{Field: entity.FieldAwardedValue, Op: entity.OpGt, Value: value}
		}
	default:
		return entity.Criterion{Field: entity.FieldId, Op: entity.OpGt, Value: after}
	}

	return entity.Criterion{Op: entity.OpNever}
}

// formatCursor serializes the last record's sort-key value in the same
// field-dependent format cursorCriterion parses.
func formatCursor(sort entity.SortField, last *entity.TenderReadModel) string {
	switch sort {
	case entity.SortByDate:
		return last.Date.Format(time.RFC3339)
	case entity.SortByAwardedValue:
		return last.AwardedValueInEuro.String()
	default:
		return last.Id
	}
}
