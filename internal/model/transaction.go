package model

import "time"

// Transaction records one checkout of an item by a user and how it ended.
type Transaction struct {
	ID                 string     `db:"id" json:"id"`
	ItemID             string     `db:"item_id" json:"item_id"`
	UserID             string     `db:"user_id" json:"user_id"`
	Quantity           int        `db:"quantity" json:"quantity"`
	ReturnedQuantity   *int       `db:"returned_quantity" json:"returned_quantity,omitempty"`
	CheckoutDate       time.Time  `db:"checkout_date" json:"checkout_date"`
	ExpectedReturnDate *time.Time `db:"expected_return_date" json:"expected_return_date,omitempty"`
	ActualReturnDate   *time.Time `db:"actual_return_date" json:"actual_return_date,omitempty"`
	Status             string     `db:"status" json:"status"`
	Notes              string     `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Transaction statuses. Overdue is never stored; it is derived from the
// expected return date at read time.
const (
	TransactionStatusCheckedOut = "checked_out"
	TransactionStatusReturned   = "returned"
	TransactionStatusOverdue    = "overdue"
	TransactionStatusLost       = "lost"
)

// Active reports whether the transaction still holds stock.
func (t Transaction) Active() bool {
	return t.Status == TransactionStatusCheckedOut
}

// IsOverdue reports whether the transaction is still checked out past its
// expected return date.
func (t Transaction) IsOverdue(now time.Time) bool {
	return t.Active() && t.ExpectedReturnDate != nil && t.ExpectedReturnDate.Before(now)
}

// DisplayStatus returns the stored status, or overdue when applicable.
func (t Transaction) DisplayStatus(now time.Time) string {
	if t.IsOverdue(now) {
		return TransactionStatusOverdue
	}
	return t.Status
}
