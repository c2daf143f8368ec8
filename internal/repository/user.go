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

var userColumns = []string{
	"id", "variant", "full_name", "email", "phone",
	"member_number", "staff_number", "department",
}

type UserRepo struct {
	store *Store
}

func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Insert(usersTableName).
		Columns("variant", "full_name", "email", "phone", "member_number", "staff_number", "department").
		Values(user.Variant, user.FullName, user.Email, user.Phone,
			user.MemberNumber, user.StaffNumber, user.Department).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var created model.User
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &created, query, args...); err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errs.Conflictf("user with email %s already exists", user.Email)
		}
		r.store.log.Error("Create user", zap.String("q", query), zap.Any("args", args))
		return model.User{}, err
	}
	return created, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	q := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"id": id}).
		Limit(1)
	if inTx(ctx) {
		// row lock for the duration of the enclosing transaction
		q = q.Suffix("for update")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.NotFoundf("user not found: %d", id)
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var user model.User
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.NotFoundf("user not found: email %s", email)
		}
		return model.User{}, err
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	return r.list(ctx, "")
}

func (r *UserRepo) ListByVariant(ctx context.Context, variant model.Variant) ([]model.User, error) {
	return r.list(ctx, variant)
}

func (r *UserRepo) list(ctx context.Context, variant model.Variant) ([]model.User, error) {
	q := qb.Select(userColumns...).
		From(usersTableName).
		OrderBy("id")
	if variant != "" {
		q = q.Where(sq.Eq{"variant": variant})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0)
	if err := sqlx.SelectContext(ctx, r.store.ext(ctx), &users, query, args...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, user model.User) (model.User, error) {
	query, args, err := qb.Update(usersTableName).
		Set("full_name", user.FullName).
		Set("email", user.Email).
		Set("phone", user.Phone).
		Set("member_number", user.MemberNumber).
		Set("staff_number", user.StaffNumber).
		Set("department", user.Department).
		Where(sq.Eq{"id": user.ID}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	var updated model.User
	if err := sqlx.GetContext(ctx, r.store.ext(ctx), &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, errs.NotFoundf("user not found: %d", user.ID)
		}
		if isUniqueViolation(err) {
			return model.User{}, errs.Conflictf("user with email %s already exists", user.Email)
		}
		r.store.log.Error("Update user", zap.String("q", query), zap.Any("args", args))
		return model.User{}, err
	}
	return updated, nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.Delete(usersTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	// dependent loans go with the user (fk on delete cascade)
	res, err := r.store.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("user not found: %d", id)
	}
	return nil
}
