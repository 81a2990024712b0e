package domain

import "time"

// AccountStatus enumerates the lifecycle states of an account.
type AccountStatus string

// All account statuses.
const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

// Account holds the account data the engine needs for eligibility checks.
type Account struct {
	ID             string        `json:"id"`
	Owner          string        `json:"owner"`
	Currency       string        `json:"currency"`
	Status         AccountStatus `json:"status"`
	OverdraftLimit Money         `json:"overdraft_limit"`
	CreatedAt      time.Time     `json:"created_at"`
}

// CanSend reports whether the account may be the source of a posting.
func (a Account) CanSend() bool {
	return a.Status == AccountActive
}

// CanReceive reports whether the account may be the destination of a posting.
func (a Account) CanReceive() bool {
	return a.Status != AccountClosed && a.Status != AccountFrozen
}
