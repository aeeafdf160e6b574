package processor

import "context"

// TransferRequest moves money from the platform balance to a connected account.
type TransferRequest struct {
	Amount               float64
	Currency             string
	DestinationAccountID string
	// SourceChargeID ties the transfer to the advertiser's original charge.
	SourceChargeID string
	TransferGroup  string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

type TransferResult struct {
	ID       string
	Amount   float64
	Currency string
}

// AccountSnapshot is the processor's current view of a connected account.
type AccountSnapshot struct {
	AccountID        string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
	CurrentlyDue     []string
	PastDue          []string
	DisabledReason   string
}

// Client is the subset of the payment processor the payout and health services use.
type Client interface {
	HasAvailableBalance(ctx context.Context, amount float64, currency string) (bool, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	RetrieveAccount(ctx context.Context, accountID string) (*AccountSnapshot, error)
}
