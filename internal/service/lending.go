package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/repository"
	"github.com/kutuphane/library-service/pkg/kafka"
)

// LendingService coordinates the user, book and loan stores. Borrow and
// Return each run as one transaction: a failure at any step leaves every
// record as it was before the call.
type LendingService struct {
	log   *zap.Logger
	books repository.Books
	users repository.Users
	loans repository.Loans
	tx    repository.Transactor
	pub   kafka.Publisher
}

func NewLendingService(
	books repository.Books,
	users repository.Users,
	loans repository.Loans,
	tx repository.Transactor,
	pub kafka.Publisher,
	log *zap.Logger,
) *LendingService {
	return &LendingService{
		log:   log,
		books: books,
		users: users,
		loans: loans,
		tx:    tx,
		pub:   pub,
	}
}

func (s *LendingService) Borrow(ctx context.Context, userID, bookID int64) (model.LoanDetail, error) {
	var detail model.LoanDetail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		book, err := s.books.GetByID(ctx, bookID)
		if err != nil {
			return err
		}

		limit := user.BorrowLimit()
		open, err := s.loans.OpenByUser(ctx, userID)
		if err != nil {
			return err
		}
		// the limit check comes first: a user at the limit is rejected for
		// limit reasons even when the book is unavailable too
		if len(open) >= limit {
			return errs.BusinessRulef("borrow limit reached (%d books)", limit)
		}
		if !book.Available {
			return errs.BusinessRulef("book not available")
		}

		if err := s.books.SetAvailable(ctx, book.ID, false); err != nil {
			return err
		}
		loan, err := s.loans.Create(ctx, model.Loan{
			BookID:   book.ID,
			UserID:   user.ID,
			LoanDate: model.Today(),
		})
		if err != nil {
			return err
		}

		book.Available = false
		detail = model.NewLoanDetail(loan, book, user)
		return nil
	})
	if err != nil {
		return model.LoanDetail{}, err
	}

	s.log.Info("book borrowed",
		zap.Int64("loanID", detail.ID),
		zap.Int64("userID", userID),
		zap.Int64("bookID", bookID),
	)
	s.publish(model.LoanBorrowed, detail)
	return detail, nil
}

func (s *LendingService) Return(ctx context.Context, loanID int64) (model.LoanDetail, error) {
	var detail model.LoanDetail
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		loan, err := s.loans.GetByID(ctx, loanID)
		if err != nil {
			return err
		}
		if !loan.Open() {
			return errs.BusinessRulef("already returned")
		}

		if err := s.books.SetAvailable(ctx, loan.BookID, true); err != nil {
			return err
		}
		returned, err := s.loans.SetReturned(ctx, loan.ID, model.Today())
		if err != nil {
			return err
		}

		book, err := s.books.GetByID(ctx, loan.BookID)
		if err != nil {
			return err
		}
		user, err := s.users.GetByID(ctx, loan.UserID)
		if err != nil {
			return err
		}
		detail = model.NewLoanDetail(returned, book, user)
		return nil
	})
	if err != nil {
		return model.LoanDetail{}, err
	}

	s.log.Info("book returned",
		zap.Int64("loanID", detail.ID),
		zap.Int64("bookID", detail.Book.ID),
	)
	s.publish(model.LoanReturned, detail)
	return detail, nil
}

// publish is best-effort and runs only after the transaction committed.
func (s *LendingService) publish(kind model.LoanEventKind, detail model.LoanDetail) {
	event := model.LoanEvent{
		Kind:   kind,
		LoanID: detail.ID,
		BookID: detail.Book.ID,
		UserID: detail.User.ID,
		Date:   model.Today(),
	}
	if err := s.pub.Publish(kafka.LoansTopic, event); err != nil {
		s.log.Error("publish loan event", zap.Error(err), zap.Any("event", event))
	}
}
