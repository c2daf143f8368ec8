package service_test

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/kutuphane/library-service/internal/errs"
	"github.com/kutuphane/library-service/internal/model"
	"github.com/kutuphane/library-service/internal/repository"
)

// memStore is an in-memory stand-in for the postgres store. WithinTx
// snapshots the maps and restores them when fn fails, so the services'
// no-partial-writes guarantee can be asserted directly.
type memStore struct {
	mu     sync.Mutex
	books  map[int64]model.Book
	users  map[int64]model.User
	loans  map[int64]model.Loan
	nextID int64

	failLoanCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		books: make(map[int64]model.Book),
		users: make(map[int64]model.User),
		loans: make(map[int64]model.Loan),
	}
}

func (m *memStore) WithinTx(_ context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	books := cloneMap(m.books)
	users := cloneMap(m.users)
	loans := cloneMap(m.loans)
	m.mu.Unlock()

	if err := fn(context.Background()); err != nil {
		m.mu.Lock()
		m.books, m.users, m.loans = books, users, loans
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[V any](src map[int64]V) map[int64]V {
	dst := make(map[int64]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) seedBook(book model.Book) model.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	book.ID = m.id()
	m.books[book.ID] = book
	return book
}

func (m *memStore) seedUser(user model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.id()
	m.users[user.ID] = user
	return user
}

func (m *memStore) seedLoan(loan model.Loan) model.Loan {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan.ID = m.id()
	m.loans[loan.ID] = loan
	return loan
}

type memBooks struct{ m *memStore }

func (b memBooks) Create(_ context.Context, book model.Book) (model.Book, error) {
	for _, stored := range b.m.books {
		if stored.ISBN == book.ISBN {
			return model.Book{}, errs.Conflictf("book with isbn %s already exists", book.ISBN)
		}
	}
	return b.m.seedBook(book), nil
}

func (b memBooks) GetByID(_ context.Context, id int64) (model.Book, error) {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	book, ok := b.m.books[id]
	if !ok {
		return model.Book{}, errs.NotFoundf("book not found: %d", id)
	}
	return book, nil
}

func (b memBooks) GetByISBN(_ context.Context, isbn string) (model.Book, error) {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	for _, book := range b.m.books {
		if book.ISBN == isbn {
			return book, nil
		}
	}
	return model.Book{}, errs.NotFoundf("book not found: isbn %s", isbn)
}

func (b memBooks) List(_ context.Context) ([]model.Book, error) {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	books := make([]model.Book, 0, len(b.m.books))
	for _, book := range b.m.books {
		books = append(books, book)
	}
	return books, nil
}

func (b memBooks) SetAvailable(_ context.Context, id int64, available bool) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	book, ok := b.m.books[id]
	if !ok {
		return errs.NotFoundf("book not found: %d", id)
	}
	book.Available = available
	b.m.books[id] = book
	return nil
}

func (b memBooks) Delete(_ context.Context, id int64) error {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	if _, ok := b.m.books[id]; !ok {
		return errs.NotFoundf("book not found: %d", id)
	}
	delete(b.m.books, id)
	for loanID, loan := range b.m.loans {
		if loan.BookID == id {
			delete(b.m.loans, loanID)
		}
	}
	return nil
}

type memUsers struct{ m *memStore }

func (u memUsers) Create(_ context.Context, user model.User) (model.User, error) {
	for _, stored := range u.m.users {
		if stored.Email == user.Email {
			return model.User{}, errs.Conflictf("user with email %s already exists", user.Email)
		}
	}
	return u.m.seedUser(user), nil
}

func (u memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	user, ok := u.m.users[id]
	if !ok {
		return model.User{}, errs.NotFoundf("user not found: %d", id)
	}
	return user, nil
}

func (u memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	for _, user := range u.m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, errs.NotFoundf("user not found: email %s", email)
}

func (u memUsers) List(_ context.Context) ([]model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	users := make([]model.User, 0, len(u.m.users))
	for _, user := range u.m.users {
		users = append(users, user)
	}
	return users, nil
}

func (u memUsers) ListByVariant(_ context.Context, variant model.Variant) ([]model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	users := make([]model.User, 0)
	for _, user := range u.m.users {
		if user.Variant == variant {
			users = append(users, user)
		}
	}
	return users, nil
}

func (u memUsers) Update(_ context.Context, user model.User) (model.User, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if _, ok := u.m.users[user.ID]; !ok {
		return model.User{}, errs.NotFoundf("user not found: %d", user.ID)
	}
	u.m.users[user.ID] = user
	return user, nil
}

func (u memUsers) Delete(_ context.Context, id int64) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if _, ok := u.m.users[id]; !ok {
		return errs.NotFoundf("user not found: %d", id)
	}
	delete(u.m.users, id)
	for loanID, loan := range u.m.loans {
		if loan.UserID == id {
			delete(u.m.loans, loanID)
		}
	}
	return nil
}

type memLoans struct{ m *memStore }

func (l memLoans) Create(_ context.Context, loan model.Loan) (model.Loan, error) {
	if l.m.failLoanCreate {
		return model.Loan{}, errors.New("loan insert failed")
	}
	return l.m.seedLoan(loan), nil
}

func (l memLoans) GetByID(_ context.Context, id int64) (model.Loan, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	loan, ok := l.m.loans[id]
	if !ok {
		return model.Loan{}, errs.NotFoundf("loan not found: %d", id)
	}
	return loan, nil
}

func (l memLoans) OpenByUser(_ context.Context, userID int64) ([]model.Loan, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	loans := make([]model.Loan, 0)
	for _, loan := range l.m.loans {
		if loan.UserID == userID && loan.Open() {
			loans = append(loans, loan)
		}
	}
	return loans, nil
}

func (l memLoans) SetReturned(_ context.Context, id int64, returned model.Date) (model.Loan, error) {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	loan, ok := l.m.loans[id]
	if !ok || !loan.Open() {
		return model.Loan{}, errs.BusinessRulef("already returned")
	}
	loan.ReturnDate = &returned
	l.m.loans[id] = loan
	return loan, nil
}

var (
	_ repository.Books      = memBooks{}
	_ repository.Users      = memUsers{}
	_ repository.Loans      = memLoans{}
	_ repository.Transactor = (*memStore)(nil)
)

// recordingPublisher captures published loan events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []model.LoanEvent
}

func (p *recordingPublisher) Publish(topic string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if event, ok := v.(model.LoanEvent); ok {
		p.events = append(p.events, event)
	}
	return nil
}
