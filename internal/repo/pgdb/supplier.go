package pgdb

import (
	"context"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/pkg/postgres"

	"github.com/Masterminds/squirrel"
)

type SupplierRepo struct {
	*postgres.Postgres
}

func NewSupplierRepo(pgdb *postgres.Postgres) *SupplierRepo {
	return &SupplierRepo{pgdb}
}

// GetSuppliersByIds returns the subset of ids that already exist, keyed by
// id. Ids with no row are simply absent from the result.
func (r *SupplierRepo) GetSuppliersByIds(ctx context.Context, ids []int) (map[int]entity.Supplier, error) {
	existing := make(map[int]entity.Supplier, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select("id, name").
		From("suppliers").
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	rows, err := r.Database.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var supplier entity.Supplier
		if err := rows.Scan(&supplier.Id, &supplier.Name); err != nil {
			return nil, err
		}
		existing[supplier.Id] = supplier
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return existing, nil
}
