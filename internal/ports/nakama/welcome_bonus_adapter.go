package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hearts/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	bonusCollection = "player_meta"
	bonusKey        = "welcome_bonus"
)

// bonusMarker is the storage record proving a grant happened.
type bonusMarker struct {
	Amount    int64  `json:"amount"`
	GrantedAt string `json:"granted_at"`
}

// NakamaWelcomeBonusAdapter implements ports.WelcomeBonusPort. The grant is
// a single MultiUpdate pairing the chip credit with a versioned storage
// marker, so a repeat grant cannot slip through between a read and a write.
type NakamaWelcomeBonusAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaWelcomeBonusAdapter creates a new welcome bonus adapter.
func NewNakamaWelcomeBonusAdapter(nk runtime.NakamaModule) *NakamaWelcomeBonusAdapter {
	return &NakamaWelcomeBonusAdapter{nk: nk}
}

// GrantWelcomeBonusOnce credits the bonus and writes the marker atomically.
// Returns false with no error when the marker already exists.
func (a *NakamaWelcomeBonusAdapter) GrantWelcomeBonusOnce(ctx context.Context, userID string, amount int64, metadata map[string]interface{}) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	if amount <= 0 {
		return false, fmt.Errorf("amount must be positive")
	}

	marker, err := json.Marshal(bonusMarker{
		Amount:    amount,
		GrantedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal welcome bonus marker: %w", err)
	}

	// Version "*" demands the key not exist yet; a second grant attempt is
	// rejected by storage and rolls back the wallet update with it.
	write := &runtime.StorageWrite{
		Collection:      bonusCollection,
		Key:             bonusKey,
		UserID:          userID,
		Value:           string(marker),
		Version:         "*",
		PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
	}
	credit := &runtime.WalletUpdate{
		UserID:    userID,
		Changeset: map[string]int64{"chips": amount},
		Metadata:  metadata,
	}

	_, _, err = a.nk.MultiUpdate(ctx, nil, []*runtime.StorageWrite{write}, nil, []*runtime.WalletUpdate{credit}, true)
	if errors.Is(err, runtime.ErrStorageRejectedVersion) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to grant welcome bonus: %w", err)
	}
	return true, nil
}

var _ ports.WelcomeBonusPort = (*NakamaWelcomeBonusAdapter)(nil)
