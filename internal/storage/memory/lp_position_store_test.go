package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

func newTestPosition(id, botID string) *domain.LpPosition {
	return &domain.LpPosition{
		ID:             id,
		BotID:          botID,
		WalletAddress:  "0x058C8FE01E5c9eaC6ee19e6673673B549B368843",
		TokenAddress:   "0xfA7dE122F5FBa7123cDb4fe6bf75821C2B937c90",
		Protocol:       domain.ProtocolUniswapV2,
		PairInfo:       "ETHG/USDC",
		Balance:        decimal.RequireFromString("12.5"),
		EstimatedValue: decimal.RequireFromString("2500"),
		Blockchain:     "ethereum",
		IsActive:       true,
	}
}

func TestLpPositionStore_GetByBotID(t *testing.T) {
	store := NewLpPositionStore()
	ctx := context.Background()

	for _, p := range []*domain.LpPosition{
		newTestPosition("lp-1", "bot-a"),
		newTestPosition("lp-2", "bot-b"),
		newTestPosition("lp-3", "bot-a"),
	} {
		if err := store.Insert(ctx, p); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetByBotID(ctx, "bot-a")
	if err != nil {
		t.Fatalf("GetByBotID failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 positions for bot-a, got %d", len(result))
	}
	if result[0].ID != "lp-1" || result[1].ID != "lp-3" {
		t.Errorf("Unexpected order: %s, %s", result[0].ID, result[1].ID)
	}

	all, _ := store.GetAll(ctx)
	if len(all) != 3 {
		t.Errorf("Expected 3 positions total, got %d", len(all))
	}
}

func TestLpPositionStore_NotFound(t *testing.T) {
	store := NewLpPositionStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
