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

var bookColumns = []string{"id", "title", "author", "isbn", "available"}

type BookRepo struct {
	store *Store
}

func NewBookRepo(store *Store) *BookRepo {
	return &BookRepo{store: store}
}

func (r *BookRepo) Create(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "isbn", "available").
		Values(book.Title, book.Author, book.ISBN, book.Available).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var created model.Book
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &created, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.Book{}, errs.Conflictf("book with isbn %s already exists", book.ISBN)
		}
		r.store.log.Error("Create book", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	return created, nil
}

func (r *BookRepo) GetByID(ctx context.Context, id int64) (model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		Limit(1)
	if inTx(ctx) {
		// row lock for the duration of the enclosing transaction
		q = q.Suffix("for update")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.NotFoundf("book not found: %d", id)
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *BookRepo) GetByISBN(ctx context.Context, isbn string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.NotFoundf("book not found: isbn %s", isbn)
		}
		return model.Book{}, err
	}
	return book, nil
}

func (r *BookRepo) List(ctx context.Context) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	books := make([]model.Book, 0)
	if err := sqlx.SelectContext(ctx, r.store.ext(ctx), &books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *BookRepo) SetAvailable(ctx context.Context, id int64, available bool) error {
	query, args, err := qb.Update(booksTableName).
		Set("available", available).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.store.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("book not found: %d", id)
	}
	return nil
}

func (r *BookRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	// dependent loans go with the book (fk on delete cascade)
	res, err := r.store.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("book not found: %d", id)
	}
	return nil
}
