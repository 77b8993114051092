package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"tender-aggregator-api/internal/entity"
	"tender-aggregator-api/internal/repo/repo_errors"
	"tender-aggregator-api/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

const tenderColumns = "id, date, title, description, awarded_value_eur"

type TenderRepo struct {
	*postgres.Postgres
}

func NewTenderRepo(pgdb *postgres.Postgres) *TenderRepo {
	return &TenderRepo{pgdb}
}

// applyCriteria folds the optional filter criteria into the builder; all
// criteria combine with AND. A supplier-id criterion becomes an EXISTS
// probe into the join table, OpNever short-circuits to an empty result.
func applyCriteria(builder squirrel.SelectBuilder, criteria []entity.Criterion) squirrel.SelectBuilder {
	for _, c := range criteria {
		switch {
		case c.Op == entity.OpNever:
			builder = builder.Where("1 = 0")
		case c.Field == entity.FieldSupplierId:
			builder = builder.Where(
				"exists (select 1 from supplier_tender st where st.tender_id = tenders.id and st.supplier_id = ?)",
				c.Value)
		default:
			builder = builder.Where(fmt.Sprintf("%s %s ?", c.Field, c.Op), c.Value)
		}
	}

	return builder
}

func (r *TenderRepo) QueryTenders(ctx context.Context, q *entity.TenderQuery) ([]entity.Tender, error) {
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	builder := applyCriteria(r.SqlBuilder.Select(tenderColumns).From("tenders"), q.Criteria).
		OrderBy(q.Sort.Column() + " " + direction).
		Limit(uint64(q.Limit))
	if q.Offset > 0 {
		builder = builder.Offset(uint64(q.Offset))
	}

	sqlReq, args, _ := builder.ToSql()
	rows, err := r.Database.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenders := make([]entity.Tender, 0)
	for rows.Next() {
		var tender entity.Tender
		if err := rows.Scan(&tender.Id, &tender.Date, &tender.Title,
			&tender.Description, &tender.AwardedValueInEuro); err != nil {
			return nil, err
		}
		tenders = append(tenders, tender)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if err = r.attachSuppliers(ctx, tenders); err != nil {
		return nil, err
	}

	return tenders, nil
}

func (r *TenderRepo) GetTenderById(ctx context.Context, id string) (*entity.Tender, error) {
	sqlReq, args, _ := r.SqlBuilder.
		Select(tenderColumns).
		From("tenders").
		Where("id = ?", id).
		ToSql()

	var tender entity.Tender
	row := r.Database.QueryRowContext(ctx, sqlReq, args...)
	err := row.Scan(&tender.Id, &tender.Date, &tender.Title,
		&tender.Description, &tender.AwardedValueInEuro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	tenders := []entity.Tender{tender}
	if err = r.attachSuppliers(ctx, tenders); err != nil {
		return nil, err
	}

	return &tenders[0], nil
}

func (r *TenderRepo) CountTenders(ctx context.Context, criteria []entity.Criterion) (int, error) {
	sqlReq, args, _ := applyCriteria(r.SqlBuilder.Select("count(*)").From("tenders"), criteria).ToSql()

	var total int
	if err := r.Database.QueryRowContext(ctx, sqlReq, args...).Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

func (r *TenderRepo) CountAllTenders(ctx context.Context) (int, error) {
	return r.CountTenders(ctx, nil)
}

func (r *TenderRepo) SaveBatch(ctx context.Context, tenders []entity.Tender, newSuppliers []entity.Supplier) error {
	if len(tenders) == 0 && len(newSuppliers) == 0 {
		return nil
	}

	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Suppliers go in first so the join rows never reference a row that
	// is not part of the same commit.
	if len(newSuppliers) > 0 {
		builder := r.SqlBuilder.Insert("suppliers").Columns("id", "name")
		for _, s := range newSuppliers {
			builder = builder.Values(s.Id, s.Name)
		}
		sqlReq, args, _ := builder.ToSql()
		if _, err = tx.ExecContext(ctx, sqlReq, args...); err != nil {
			if e := tx.Rollback(); e != nil {
				return e
			}

			return classifyPgError(err)
		}
	}

	if len(tenders) > 0 {
		builder := r.SqlBuilder.Insert("tenders").Columns("id", "date", "title", "description", "awarded_value_eur")
		for _, t := range tenders {
			builder = builder.Values(t.Id, t.Date, t.Title, t.Description, t.AwardedValueInEuro)
		}
		sqlReq, args, _ := builder.ToSql()
		if _, err = tx.ExecContext(ctx, sqlReq, args...); err != nil {
			if e := tx.Rollback(); e != nil {
				return e
			}

			return classifyPgError(err)
		}

		joins := r.SqlBuilder.Insert("supplier_tender").Columns("supplier_id", "tender_id")
		joinCount := 0
		for _, t := range tenders {
			for _, s := range t.Suppliers {
				joins = joins.Values(s.Id, t.Id)
				joinCount++
			}
		}
		if joinCount > 0 {
			sqlReq, args, _ := joins.ToSql()
			if _, err = tx.ExecContext(ctx, sqlReq, args...); err != nil {
				if e := tx.Rollback(); e != nil {
					return e
				}

				return classifyPgError(err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return classifyPgError(err)
	}

	return nil
}

func (r *TenderRepo) attachSuppliers(ctx context.Context, tenders []entity.Tender) error {
	if len(tenders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(tenders))
	for _, t := range tenders {
		ids = append(ids, t.Id)
	}

	sqlReq, args, _ := r.SqlBuilder.
		Select("st.tender_id, s.id, s.name").
		From("suppliers s").
		InnerJoin("supplier_tender st on st.supplier_id = s.id").
		Where(squirrel.Eq{"st.tender_id": ids}).
		OrderBy("s.id ASC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, sqlReq, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	byTender := make(map[string][]entity.Supplier)
	for rows.Next() {
		var tenderId string
		var supplier entity.Supplier
		if err := rows.Scan(&tenderId, &supplier.Id, &supplier.Name); err != nil {
			return err
		}
		byTender[tenderId] = append(byTender[tenderId], supplier)
	}
	if err = rows.Err(); err != nil {
		return err
	}

	for i := range tenders {
		tenders[i].Suppliers = byTender[tenders[i].Id]
	}

	return nil
}

func classifyPgError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repo_errors.ErrUniqueViolation, pqErr.Detail)
	}

	return err
}
