package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/service"
	"github.com/kutuphane/library-service/pkg/kafka"
)

type lendingFixture struct {
	store *memStore
	books memBooks
	users memUsers
	loans memLoans
	pub   *recordingPublisher
	svc   *service.LendingService
}

func newLendingFixture(t *testing.T) *lendingFixture {
	t.Helper()
	store := newMemStore()
	f := &lendingFixture{
		store: store,
		books: memBooks{m: store},
		users: memUsers{m: store},
		loans: memLoans{m: store},
		pub:   &recordingPublisher{},
	}
	f.svc = service.NewLendingService(
		f.books, f.users, f.loans, store, f.pub, zap.NewExample().Named("test"))
	return f
}

func (f *lendingFixture) member(t *testing.T) model.User {
	t.Helper()
	user, err := model.NewMember("Ayse Yilmaz", "ayse@example.com", nil, nil)
	require.NoError(t, err)
	return f.store.seedUser(user)
}

func (f *lendingFixture) staff(t *testing.T) model.User {
	t.Helper()
	user, err := model.NewStaff("Mehmet Demir", "mehmet@example.com", nil, nil, nil)
	require.NoError(t, err)
	return f.store.seedUser(user)
}

func (f *lendingFixture) book(t *testing.T, isbn string) model.Book {
	t.Helper()
	book, err := model.NewBook("Tutunamayanlar", "Oguz Atay", isbn)
	require.NoError(t, err)
	return f.store.seedBook(book)
}

func (f *lendingFixture) openLoan(user model.User, book model.Book) model.Loan {
	return f.store.seedLoan(model.Loan{
		BookID:   book.ID,
		UserID:   user.ID,
		LoanDate: model.Today(),
	})
}

func today(t *testing.T) string {
	t.Helper()
	return time.Now().UTC().Format(time.DateOnly)
}

func TestLendingService_Borrow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fresh borrow", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		book := f.book(t, "978-975-470-711-1")

		detail, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.NoError(t, err)
		require.Equal(t, book.ID, detail.Book.ID)
		require.Equal(t, user.ID, detail.User.ID)
		require.Equal(t, today(t), detail.LoanDate.Format(time.DateOnly))
		require.Nil(t, detail.ReturnDate)

		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.False(t, stored.Available)

		require.Equal(t, []string{kafka.LoansTopic}, f.pub.topics)
		require.Len(t, f.pub.events, 1)
		require.Equal(t, model.LoanBorrowed, f.pub.events[0].Kind)
		require.Equal(t, detail.ID, f.pub.events[0].LoanID)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		book := f.book(t, "978-1")

		_, err := f.svc.Borrow(ctx, 99, book.ID)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.EqualError(t, err, "user not found: 99")

		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)
		require.Empty(t, f.store.loans)
		require.Empty(t, f.pub.events)
	})

	t.Run("unknown book", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)

		_, err := f.svc.Borrow(ctx, user.ID, 99)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.EqualError(t, err, "book not found: 99")
		require.Empty(t, f.store.loans)
	})

	t.Run("member at limit", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		for i := 0; i < 3; i++ {
			f.openLoan(user, f.book(t, "isbn-"+string(rune('a'+i))))
		}
		extra := f.book(t, "isbn-extra")

		_, err := f.svc.Borrow(ctx, user.ID, extra.ID)
		require.ErrorIs(t, err, errs.ErrBusinessRule)
		require.EqualError(t, err, "borrow limit reached (3 books)")

		stored, err := f.books.GetByID(ctx, extra.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)
		require.Len(t, f.store.loans, 3)
	})

	t.Run("staff limit is five", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.staff(t)
		for i := 0; i < 4; i++ {
			f.openLoan(user, f.book(t, "isbn-"+string(rune('a'+i))))
		}

		fifth := f.book(t, "isbn-5th")
		_, err := f.svc.Borrow(ctx, user.ID, fifth.ID)
		require.NoError(t, err)

		sixth := f.book(t, "isbn-6th")
		_, err = f.svc.Borrow(ctx, user.ID, sixth.ID)
		require.ErrorIs(t, err, errs.ErrBusinessRule)
		require.EqualError(t, err, "borrow limit reached (5 books)")
	})

	t.Run("book not available", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		book := f.book(t, "isbn-taken")
		other := f.staff(t)
		require.NoError(t, f.books.SetAvailable(ctx, book.ID, false))
		f.openLoan(other, book)

		_, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.ErrorIs(t, err, errs.ErrBusinessRule)
		require.EqualError(t, err, "book not available")
	})

	t.Run("limit check precedes availability check", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		for i := 0; i < 3; i++ {
			f.openLoan(user, f.book(t, "isbn-"+string(rune('a'+i))))
		}
		unavailable := f.book(t, "isbn-gone")
		require.NoError(t, f.books.SetAvailable(ctx, unavailable.ID, false))

		_, err := f.svc.Borrow(ctx, user.ID, unavailable.ID)
		require.EqualError(t, err, "borrow limit reached (3 books)")
	})

	t.Run("failed loan insert rolls back availability", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		book := f.book(t, "isbn-rollback")
		f.store.failLoanCreate = true

		_, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.Error(t, err)

		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)
		require.Empty(t, f.store.loans)
	})
}

func TestLendingService_Return(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("open loan", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		book := f.book(t, "isbn-return")

		borrowed, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.NoError(t, err)

		detail, err := f.svc.Return(ctx, borrowed.ID)
		require.NoError(t, err)
		require.NotNil(t, detail.ReturnDate)
		require.Equal(t, today(t), detail.ReturnDate.Format(time.DateOnly))
		require.False(t, detail.ReturnDate.Before(detail.LoanDate.Time))

		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)

		require.Equal(t, model.LoanReturned, f.pub.events[len(f.pub.events)-1].Kind)
	})

	t.Run("already returned", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)
		user := f.member(t)
		book := f.book(t, "isbn-twice")

		borrowed, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.NoError(t, err)
		first, err := f.svc.Return(ctx, borrowed.ID)
		require.NoError(t, err)

		_, err = f.svc.Return(ctx, borrowed.ID)
		require.ErrorIs(t, err, errs.ErrBusinessRule)
		require.EqualError(t, err, "already returned")

		// neither availability nor the return date moved
		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)
		loan, err := f.loans.GetByID(ctx, borrowed.ID)
		require.NoError(t, err)
		require.Equal(t, first.ReturnDate.Format(time.DateOnly), loan.ReturnDate.Format(time.DateOnly))
	})

	t.Run("unknown loan", func(t *testing.T) {
		t.Parallel()
		f := newLendingFixture(t)

		_, err := f.svc.Return(ctx, 100)
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.EqualError(t, err, "loan not found: 100")
	})
}

func TestLendingService_BorrowReturnCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newLendingFixture(t)
	user := f.member(t)
	book := f.book(t, "isbn-cycle")

	for i := 0; i < 3; i++ {
		borrowed, err := f.svc.Borrow(ctx, user.ID, book.ID)
		require.NoError(t, err)

		stored, err := f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.False(t, stored.Available)

		_, err = f.svc.Return(ctx, borrowed.ID)
		require.NoError(t, err)

		stored, err = f.books.GetByID(ctx, book.ID)
		require.NoError(t, err)
		require.True(t, stored.Available)

		open, err := f.loans.OpenByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Empty(t, open)
	}
}
