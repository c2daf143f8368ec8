package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
)

var loanColumns = []string{"id", "book_id", "user_id", "loan_date", "return_date"}

type LoanRepo struct {
	store *Store
}

func NewLoanRepo(store *Store) *LoanRepo {
	return &LoanRepo{store: store}
}

func (r *LoanRepo) Create(ctx context.Context, loan model.Loan) (model.Loan, error) {
	query, args, err := qb.Insert(loansTableName).
		Columns("book_id", "user_id", "loan_date").
		Values(loan.BookID, loan.UserID, loan.LoanDate).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var created model.Loan
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &created, query, args...); err != nil {
		r.store.log.Error("Create loan", zap.String("q", query), zap.Any("args", args))
		return model.Loan{}, err
	}
	return created, nil
}

func (r *LoanRepo) GetByID(ctx context.Context, id int64) (model.Loan, error) {
	q := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": id}).
		Limit(1)
	if inTx(ctx) {
		// row lock for the duration of the enclosing transaction
		q = q.Suffix("for update")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.NotFoundf("loan not found: %d", id)
		}
		return model.Loan{}, err
	}
	return loan, nil
}

// OpenByUser returns the user's loans with no return date yet.
func (r *LoanRepo) OpenByUser(ctx context.Context, userID int64) ([]model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"return_date": nil}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	loans := make([]model.Loan, 0)
	if err := sqlx.SelectContext(ctx, r.store.ext(ctx), &loans, query, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

// SetReturned closes an open loan. The return_date is null guard keeps the
// date write-once even if callers race.
func (r *LoanRepo) SetReturned(ctx context.Context, id int64, returned model.Date) (model.Loan, error) {
	query, args, err := qb.Update(loansTableName).
		Set("return_date", returned).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"return_date": nil}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var updated model.Loan
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.BusinessRulef("already returned")
		}
		r.store.log.Error("SetReturned", zap.String("q", query), zap.Any("args", args))
		return model.Loan{}, err
	}
	return updated, nil
}
