package processor

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"adspace/services/pricing"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeClient implements Client on top of Stripe Connect.
type StripeClient struct {
	api    *client.API
	logger *zap.Logger
}

func NewStripeClient(secretKey string, logger *zap.Logger) (*StripeClient, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeClient{api: client.New(secretKey, nil), logger: logger}, nil
}

// HasAvailableBalance reports whether the platform's available balance in currency covers amount.
func (c *StripeClient) HasAvailableBalance(ctx context.Context, amount float64, currency string) (bool, error) {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	bal, err := c.api.Balance.Get(params)
	if err != nil {
		return false, classify("balance", err)
	}

	needed := pricing.ToMinorUnits(amount)
	var available int64
	for _, a := range bal.Available {
		if strings.EqualFold(string(a.Currency), currency) {
			available += a.Amount
		}
	}
	c.logger.Debug("Platform balance checked",
		zap.Int64("availableMinor", available),
		zap.Int64("neededMinor", needed),
		zap.String("currency", currency))
	return available >= needed, nil
}

// Transfer sends funds to a connected account. The idempotency key makes retries of the same
// attempt safe against duplicate transfers.
func (c *StripeClient) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(pricing.ToMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(req.DestinationAccountID),
	}
	if req.SourceChargeID != "" {
		params.SourceTransaction = stripe.String(req.SourceChargeID)
	}
	if req.TransferGroup != "" {
		params.TransferGroup = stripe.String(req.TransferGroup)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	t, err := c.api.Transfers.New(params)
	if err != nil {
		return nil, classify("transfer", err)
	}
	return &TransferResult{
		ID:       t.ID,
		Amount:   float64(t.Amount) / 100,
		Currency: string(t.Currency),
	}, nil
}

// RetrieveAccount fetches the current state of a connected account.
func (c *StripeClient) RetrieveAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, classify("account retrieval", err)
	}
	return snapshotFromAccount(acct), nil
}

func snapshotFromAccount(acct *stripe.Account) *AccountSnapshot {
	s := &AccountSnapshot{
		AccountID:        acct.ID,
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}
	if acct.Requirements != nil {
		s.CurrentlyDue = acct.Requirements.CurrentlyDue
		s.PastDue = acct.Requirements.PastDue
		s.DisabledReason = string(acct.Requirements.DisabledReason)
	}
	return s
}

// classify maps Stripe errors onto the package's sentinel errors.
func classify(op string, err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return &Error{Op: op, Err: err}
	}
	code := string(serr.Code)
	switch {
	case serr.Code == stripe.ErrorCodeBalanceInsufficient:
		return &Error{Op: op, Code: code, Err: ErrInsufficientBalance}
	case serr.HTTPStatusCode == http.StatusNotFound,
		serr.HTTPStatusCode == http.StatusForbidden,
		serr.Code == stripe.ErrorCodeResourceMissing,
		serr.Code == stripe.ErrorCodeAccountInvalid:
		return &Error{Op: op, Code: code, Err: ErrAccountUnavailable}
	default:
		return &Error{Op: op, Code: code, Err: err}
	}
}
