package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"funding-ledger/internal/domain"
	"funding-ledger/internal/storage"
)

func newTestBot(id string, createdAt time.Time) *domain.Bot {
	return &domain.Bot{
		ID:            id,
		Name:          "LP Bot " + id,
		Type:          domain.BotTypeLiquidityProvider,
		Status:        domain.BotStatusActive,
		WalletAddress: "0x058C8FE01E5c9eaC6ee19e6673673B549B368843",
		Config:        map[string]any{"pair": "ETHG/USDC"},
		CreatedAt:     createdAt,
		LastActive:    createdAt,
	}
}

func TestBotStore_InsertAndGet(t *testing.T) {
	store := NewBotStore()
	ctx := context.Background()

	b := newTestBot("bot-1", time.Unix(1700000000, 0).UTC())

	if err := store.Insert(ctx, b); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "bot-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Name != b.Name {
		t.Errorf("Name mismatch: got %s, want %s", got.Name, b.Name)
	}
	if got.Config["pair"] != "ETHG/USDC" {
		t.Errorf("Config mismatch: got %v", got.Config)
	}
}

func TestBotStore_DuplicateKey(t *testing.T) {
	store := NewBotStore()
	ctx := context.Background()

	b := newTestBot("bot-1", time.Now())
	if err := store.Insert(ctx, b); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, b)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBotStore_NotFound(t *testing.T) {
	store := NewBotStore()

	got, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil bot, got %+v", got)
	}
}

func TestBotStore_GetAllOrdered(t *testing.T) {
	store := NewBotStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for _, b := range []*domain.Bot{
		newTestBot("c", base.Add(2*time.Second)),
		newTestBot("a", base),
		newTestBot("b", base.Add(time.Second)),
	} {
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	result, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if len(result) != 3 {
		t.Fatalf("Expected 3 bots, got %d", len(result))
	}
	for i, want := range []string{"a", "b", "c"} {
		if result[i].ID != want {
			t.Errorf("result[%d] = %s, want %s", i, result[i].ID, want)
		}
	}
}

func TestBotStore_ReturnsCopies(t *testing.T) {
	store := NewBotStore()
	ctx := context.Background()

	b := newTestBot("bot-1", time.Now())
	if err := store.Insert(ctx, b); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the input or a returned value must not affect the store
	b.Config["pair"] = "mutated"
	got, _ := store.GetByID(ctx, "bot-1")
	got.Name = "mutated"

	again, _ := store.GetByID(ctx, "bot-1")
	if again.Config["pair"] != "ETHG/USDC" {
		t.Errorf("stored config mutated via input: %v", again.Config["pair"])
	}
	if again.Name == "mutated" {
		t.Error("stored bot mutated via returned copy")
	}
}

func TestBotStore_InvalidInput(t *testing.T) {
	store := NewBotStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.Bot{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty id, got %v", err)
	}
}
