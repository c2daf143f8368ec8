package repository

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	sq "github.com/Masterminds/squirrel"

	"github.com/kutuphane/library-service/internal/model"
)

type Books interface {
	Create(ctx context.Context, book model.Book) (model.Book, error)
	GetByID(ctx context.Context, id int64) (model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	SetAvailable(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
}

type Users interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListByVariant(ctx context.Context, variant model.Variant) ([]model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

type Loans interface {
	Create(ctx context.Context, loan model.Loan) (model.Loan, error)
	GetByID(ctx context.Context, id int64) (model.Loan, error)
	OpenByUser(ctx context.Context, userID int64) ([]model.Loan, error)
	SetReturned(ctx context.Context, id int64, returned model.Date) (model.Loan, error)
}

// Transactor runs fn atomically: every store call made through the ctx it
// passes in joins the same transaction, and an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const (
	booksTableName = `books`
	usersTableName = `users`
	loansTableName = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store holds the shared pool and implements Transactor. The per-entity
// repos (BookRepo, UserRepo, LoanRepo) route their queries through it so
// that calls made under WithinTx share one transaction.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStore(db *sqlx.DB, log *zap.Logger) (*Store, error) {
	return &Store{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

type txKey struct{}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("tx rollback", zap.Error(rbErr))
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// ext resolves the ctx-carried transaction, falling back to the pool.
func (s *Store) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return s.db
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var (
	_ Books      = (*BookRepo)(nil)
	_ Users      = (*UserRepo)(nil)
	_ Loans      = (*LoanRepo)(nil)
	_ Transactor = (*Store)(nil)
)
