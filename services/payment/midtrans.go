package payment

import (
	"context"
	"coursehub/apperror"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// Midtrans opens Snap transactions and reads their status through the Core API.
type Midtrans struct {
	snap   snap.Client
	core   coreapi.Client
	expiry time.Duration
}

func NewMidtrans(serverKey string, production bool, expiry time.Duration) *Midtrans {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	m := &Midtrans{expiry: expiry}
	m.snap.New(serverKey, env)
	m.core.New(serverKey, env)
	return m
}

func (m *Midtrans) CreateIntent(ctx context.Context, req IntentRequest) (*Authorization, error) {
	if req.Amount <= 0 {
		return nil, apperror.Payment("Invalid course price", fmt.Errorf("amount %d", req.Amount))
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.FirstName,
			LName: req.Customer.LastName,
			Email: req.Customer.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       req.CourseID,
				Name:     truncate(req.CourseTitle, 50),
				Price:    req.Amount,
				Qty:      1,
				Category: "COURSE",
			},
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
	}
	if minutes := int64(m.expiry / time.Minute); minutes > 0 {
		snapReq.Expiry = &snap.ExpiryDetails{Unit: "minute", Duration: minutes}
	}

	resp, mErr := m.snap.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, apperror.Payment("Failed to create payment intent", mErr)
	}
	return &Authorization{
		OrderID:      req.OrderID,
		ClientSecret: resp.Token,
		RedirectURL:  resp.RedirectURL,
	}, nil
}

func (m *Midtrans) Status(ctx context.Context, orderID string) (*Status, error) {
	resp, mErr := m.core.CheckTransaction(orderID)
	if mErr != nil {
		return nil, apperror.Payment("Failed to check payment status", mErr)
	}
	return &Status{
		OrderID: orderID,
		State:   resp.TransactionStatus,
		Settled: IsSettled(resp.TransactionStatus, resp.FraudStatus),
	}, nil
}

// IsSettled reports whether a processor status means the money was captured.
func IsSettled(transactionStatus, fraudStatus string) bool {
	switch transactionStatus {
	case "settlement":
		return true
	case "capture":
		return fraudStatus == "" || fraudStatus == "accept"
	}
	return false
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
