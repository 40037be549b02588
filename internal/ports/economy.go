package ports

import "context"

// WalletUpdate represents a single currency change for a user.
type WalletUpdate struct {
	UserID   string
	Amount   int64
	Metadata map[string]interface{}
}

// EconomyPort manages the chip currency used for table stakes.
type EconomyPort interface {
	// GetBalance retrieves the current chip balance for a user.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// UpdateBalances applies the wallet changes of a game settlement.
	UpdateBalances(ctx context.Context, updates []WalletUpdate) error
}
