// Package payment opens and inspects payment authorizations with the external processor.
package payment

import "context"

type Customer struct {
	FirstName string
	LastName  string
	Email     string
}

type IntentRequest struct {
	OrderID     string
	Amount      int64 // smallest currency unit
	Currency    string
	CourseID    string
	CourseTitle string
	Customer    Customer
}

// Authorization is an open payment intent. ClientSecret is what the client uses to finish
// the payment out of band.
type Authorization struct {
	OrderID      string
	ClientSecret string
	RedirectURL  string
}

type Status struct {
	OrderID string
	State   string
	Settled bool
}

type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Authorization, error)
	Status(ctx context.Context, orderID string) (*Status, error)
}
