package service

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/repository"
)

type BookService struct {
	log  *zap.Logger
	repo repository.Books
}

func NewBookService(repo repository.Books, log *zap.Logger) *BookService {
	return &BookService{
		log:  log,
		repo: repo,
	}
}

func (s *BookService) Add(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	book, err := model.NewBook(req.Title, req.Author, req.ISBN)
	if err != nil {
		return model.Book{}, err
	}
	if _, err := s.repo.GetByISBN(ctx, book.ISBN); err == nil {
		return model.Book{}, errs.Conflictf("book with isbn %s already exists", book.ISBN)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Book{}, err
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	s.log.Info("book added", zap.Int64("id", created.ID), zap.String("isbn", created.ISBN))
	return created, nil
}

func (s *BookService) Get(ctx context.Context, id int64) (model.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BookService) GetByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	return s.repo.List(ctx)
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("book deleted", zap.Int64("id", id))
	return nil
}
