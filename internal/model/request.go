package model

import "time"

type CreateBookRequest struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
}

type MemberRequest struct {
	FullName     string  `json:"fullName" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        *string `json:"phone"`
	MemberNumber *string `json:"memberNumber"`
}

type StaffRequest struct {
	FullName    string  `json:"fullName" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       *string `json:"phone"`
	StaffNumber *string `json:"staffNumber"`
	Department  *string `json:"department"`
}

// ErrorResponse is the envelope every failed request gets.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

type LoanEventKind string

const (
	LoanBorrowed LoanEventKind = "BORROWED"
	LoanReturned LoanEventKind = "RETURNED"
)

// LoanEvent is published to kafka after a borrow or return commits.
type LoanEvent struct {
	Kind   LoanEventKind `json:"kind"`
	LoanID int64         `json:"loanId"`
	BookID int64         `json:"bookId"`
	UserID int64         `json:"userId"`
	Date   Date          `json:"date"`
}
