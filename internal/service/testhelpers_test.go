package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/guru"
	"tender-aggregator-api/internal/repo/repo_errors"
	"time"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the pgdb repos. It applies
// criteria, sorting and windowing the same way the real store does, which
// lets the service tests exercise full query and ingestion flows.
type memStore struct {
	mu           sync.Mutex
	tenders      []entity.Tender
	suppliers    map[int]entity.Supplier
	batches      [][]entity.Tender
	newSuppliers [][]entity.Supplier
	saveErr      error
}

func newMemStore() *memStore {
	return &memStore{suppliers: make(map[int]entity.Supplier)}
}

func criterionMatches(t *entity.Tender, c entity.Criterion) bool {
	switch {
	case c.Op == entity.OpNever:
		return false
	case c.Field == entity.FieldSupplierId:
		id := c.Value.(int)
		for _, s := range t.Suppliers {
			if s.Id == id {
				return true
			}
		}
		return false
	case c.Field == entity.FieldDate:
		v := c.Value.(time.Time)
		switch c.Op {
		case entity.OpGte:
			return !t.Date.Before(v)
		case entity.OpLte:
			return !t.Date.After(v)
		case entity.OpGt:
			return t.Date.After(v)
		}
	case c.Field == entity.FieldAwardedValue:
		cmp := t.AwardedValueInEuro.Cmp(c.Value.(decimal.Decimal))
		switch c.Op {
		case entity.OpGte:
			return cmp >= 0
		case entity.OpLte:
			return cmp <= 0
		case entity.OpGt:
			return cmp > 0
		}
	case c.Field == entity.FieldId:
		v := c.Value.(string)
		switch c.Op {
		case entity.OpGt:
			return t.Id > v
		case entity.OpEq:
			return t.Id == v
		}
	}

	return false
}

func (m *memStore) filtered(criteria []entity.Criterion) []entity.Tender {
	result := make([]entity.Tender, 0)
	for _, t := range m.tenders {
		matchesAll := true
		for _, c := range criteria {
			if !criterionMatches(&t, c) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			result = append(result, t)
		}
	}

	return result
}

func (m *memStore) QueryTenders(ctx context.Context, q *entity.TenderQuery) ([]entity.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := m.filtered(q.Criteria)
	sort.Slice(result, func(i, j int) bool {
		var less bool
		switch q.Sort {
		case entity.SortByDate:
			less = result[i].Date.Before(result[j].Date)
		case entity.SortByAwardedValue:
			less = result[i].AwardedValueInEuro.Cmp(result[j].AwardedValueInEuro) < 0
		default:
			less = result[i].Id < result[j].Id
		}
		if q.Desc {
			return !less
		}
		return less
	})

	if q.Offset >= len(result) {
		return []entity.Tender{}, nil
	}
	result = result[q.Offset:]
	if q.Limit < len(result) {
		result = result[:q.Limit]
	}

	return result, nil
}

func (m *memStore) CountTenders(ctx context.Context, criteria []entity.Criterion) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.filtered(criteria)), nil
}

func (m *memStore) CountAllTenders(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tenders), nil
}

func (m *memStore) GetTenderById(ctx context.Context, id string) (*entity.Tender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.tenders {
		if m.tenders[i].Id == id {
			return &m.tenders[i], nil
		}
	}

	return nil, repo_errors.ErrNotFound
}

func (m *memStore) SaveBatch(ctx context.Context, tenders []entity.Tender, newSuppliers []entity.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	for _, t := range tenders {
		for _, existing := range m.tenders {
			if existing.Id == t.Id {
				return repo_errors.ErrUniqueViolation
			}
		}
	}
	for _, s := range newSuppliers {
		if _, ok := m.suppliers[s.Id]; ok {
			return repo_errors.ErrUniqueViolation
		}
	}

	for _, s := range newSuppliers {
		m.suppliers[s.Id] = s
	}
	m.tenders = append(m.tenders, tenders...)
	m.batches = append(m.batches, tenders)
	m.newSuppliers = append(m.newSuppliers, newSuppliers)

	return nil
}

func (m *memStore) GetSuppliersByIds(ctx context.Context, ids []int) (map[int]entity.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[int]entity.Supplier)
	for _, id := range ids {
		if s, ok := m.suppliers[id]; ok {
			existing[id] = s
		}
	}

	return existing, nil
}

// fakeSource serves canned pages and records which indexes were asked for.
type fakeSource struct {
	mu        sync.Mutex
	pages     map[int][]guru.TenderDto
	calls     []int
	errOnPage int
	block     chan struct{}
}

func (s *fakeSource) FetchPage(ctx context.Context, page int) (*guru.TendersPage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-block:
		}
	}

	if s.errOnPage != 0 && page == s.errOnPage {
		return nil, errors.New("source exploded")
	}

	return &guru.TendersPage{Tenders: s.pages[page]}, nil
}

func (s *fakeSource) recordedCalls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]int{}, s.calls...)
}

func rawTender(id, value string, supplierIds ...int) guru.TenderDto {
	awards := make([]guru.TenderAwardDto, 0, len(supplierIds))
	for _, supplierId := range supplierIds {
		awards = append(awards, guru.TenderAwardDto{
			Suppliers: []guru.TenderSupplierDto{{Id: supplierId, Name: "Supplier " + id}},
		})
	}

	return guru.TenderDto{
		Id:                 id,
		Date:               guru.Date{Time: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		Title:              "Tender " + id,
		AwardedValueInEuro: value,
		Awards:             awards,
	}
}
