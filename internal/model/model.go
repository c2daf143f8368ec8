package model

import (
	"strings"

	"github.com/kutuphane/library-service/internal/errs"
)

type Book struct {
	ID        int64  `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Author    string `json:"author" db:"author"`
	ISBN      string `json:"isbn" db:"isbn"`
	Available bool   `json:"available" db:"available"`
}

// NewBook is the single validating constructor: a Book that fails it is
// never considered live.
func NewBook(title, author, isbn string) (Book, error) {
	if strings.TrimSpace(title) == "" {
		return Book{}, errs.Validationf("title must not be empty")
	}
	if strings.TrimSpace(author) == "" {
		return Book{}, errs.Validationf("author must not be empty")
	}
	if strings.TrimSpace(isbn) == "" {
		return Book{}, errs.Validationf("isbn must not be empty")
	}
	return Book{
		Title:     title,
		Author:    author,
		ISBN:      isbn,
		Available: true,
	}, nil
}

type Variant string

const (
	VariantMember Variant = "MEMBER"
	VariantStaff  Variant = "STAFF"
)

const (
	memberBorrowLimit = 3
	staffBorrowLimit  = 5
)

// User is a closed set of two variants sharing one record. Variant-specific
// optional fields are NULL for the other variant.
type User struct {
	ID       int64   `json:"id" db:"id"`
	Variant  Variant `json:"variant" db:"variant"`
	FullName string  `json:"fullName" db:"full_name"`
	Email    string  `json:"email" db:"email"`
	Phone    *string `json:"phone,omitempty" db:"phone"`

	MemberNumber *string `json:"memberNumber,omitempty" db:"member_number"`

	StaffNumber *string `json:"staffNumber,omitempty" db:"staff_number"`
	Department  *string `json:"department,omitempty" db:"department"`
}

// BorrowLimit dispatches on the variant tag. The only behavior that
// differs between the two variants.
func (u User) BorrowLimit() int {
	if u.Variant == VariantStaff {
		return staffBorrowLimit
	}
	return memberBorrowLimit
}

func NewMember(fullName, email string, phone, memberNumber *string) (User, error) {
	u, err := newUser(VariantMember, fullName, email, phone)
	if err != nil {
		return User{}, err
	}
	u.MemberNumber = memberNumber
	return u, nil
}

func NewStaff(fullName, email string, phone, staffNumber, department *string) (User, error) {
	u, err := newUser(VariantStaff, fullName, email, phone)
	if err != nil {
		return User{}, err
	}
	u.StaffNumber = staffNumber
	u.Department = department
	return u, nil
}

func newUser(variant Variant, fullName, email string, phone *string) (User, error) {
	if strings.TrimSpace(fullName) == "" {
		return User{}, errs.Validationf("full name must not be empty")
	}
	if strings.TrimSpace(email) == "" {
		return User{}, errs.Validationf("email must not be empty")
	}
	return User{
		Variant:  variant,
		FullName: fullName,
		Email:    email,
		Phone:    phone,
	}, nil
}

// Loan references its book and user by identifier, not by object graph.
type Loan struct {
	ID         int64 `json:"id" db:"id"`
	BookID     int64 `json:"bookId" db:"book_id"`
	UserID     int64 `json:"userId" db:"user_id"`
	LoanDate   Date  `json:"loanDate" db:"loan_date"`
	ReturnDate *Date `json:"returnDate" db:"return_date"`
}

func (l Loan) Open() bool {
	return l.ReturnDate == nil
}

// LoanDetail is the client-facing shape of a loan with the referenced
// entities embedded. The kitap/kullanici keys are the wire contract
// retained from the system this one replaces.
type LoanDetail struct {
	ID         int64 `json:"id"`
	Book       Book  `json:"kitap"`
	User       User  `json:"kullanici"`
	LoanDate   Date  `json:"loanDate"`
	ReturnDate *Date `json:"returnDate"`
}

func NewLoanDetail(loan Loan, book Book, user User) LoanDetail {
	return LoanDetail{
		ID:         loan.ID,
		Book:       book,
		User:       user,
		LoanDate:   loan.LoanDate,
		ReturnDate: loan.ReturnDate,
	}
}
