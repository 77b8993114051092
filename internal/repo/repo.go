package repo

import (
	"context"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/repo/pgdb"
	"tender-aggregator-api/pkg/postgres"
)

type Diagnostics interface {
	Ping(ctx context.Context) error
}

type Tender interface {
	GetTenderById(ctx context.Context, id string) (*entity.Tender, error)
	QueryTenders(ctx context.Context, q *entity.TenderQuery) ([]entity.Tender, error)
	CountTenders(ctx context.Context, criteria []entity.Criterion) (int, error)
	CountAllTenders(ctx context.Context) (int, error)
	// SaveBatch stages newSuppliers, then tenders, then the join rows of
	// every tender's supplier list, and commits all of it in one
	// transaction. A duplicate tender id aborts the whole batch.
	SaveBatch(ctx context.Context, tenders []entity.Tender, newSuppliers []entity.Supplier) error
}

type Supplier interface {
	GetSuppliersByIds(ctx context.Context, ids []int) (map[int]entity.Supplier, error)
}

type Repositories struct {
	Diagnostics
	Tender
	Supplier
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics: pgdb.NewDiagnosticsRepo(p),
		Tender:      pgdb.NewTenderRepo(p),
		Supplier:    pgdb.NewSupplierRepo(p),
	}
}
