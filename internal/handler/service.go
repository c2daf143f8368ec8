package handler

import (
	"context"

	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	Add(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	Get(ctx context.Context, id int64) (model.Book, error)
	GetByISBN(ctx context.Context, isbn string) (model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type UserService interface {
	AddMember(ctx context.Context, req model.MemberRequest) (model.User, error)
	AddStaff(ctx context.Context, req model.StaffRequest) (model.User, error)
	Get(ctx context.Context, id int64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListMembers(ctx context.Context) ([]model.User, error)
	ListStaff(ctx context.Context) ([]model.User, error)
	UpdateMember(ctx context.Context, id int64, req model.MemberRequest) (model.User, error)
	UpdateStaff(ctx context.Context, id int64, req model.StaffRequest) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

type LendingService interface {
	Borrow(ctx context.Context, userID, bookID int64) (model.LoanDetail, error)
	Return(ctx context.Context, loanID int64) (model.LoanDetail, error)
}

var (
	_ BookService    = (*service.BookService)(nil)
	_ UserService    = (*service.UserService)(nil)
	_ LendingService = (*service.LendingService)(nil)
)
