package ledger

import (
	"testing"

	"github.com/404Simon/splitify/internal/core"
)

// applyTransfers replays suggested transfers against positions and
// reports any leftover.
func applyTransfers(positions map[int64]core.Money, transfers []Transfer) map[int64]core.Money {
	out := make(map[int64]core.Money, len(positions))
	for id, p := range positions {
		out[id] = p
	}
	for _, tr := range transfers {
		out[tr.FromUserID] = out[tr.FromUserID].Add(tr.Amount)
		out[tr.ToUserID] = out[tr.ToUserID].Sub(tr.Amount)
	}
	return out
}

func TestSimplifyZeroesAllPositions(t *testing.T) {
	tests := []struct {
		name  string
		debts []DebtForBalance
	}{
		{
			name: "chain of debts",
			debts: []DebtForBalance{
				sharesFor(t, "100.00", 1, []int64{1, 2, 3}),
				sharesFor(t, "60.00", 2, []int64{2, 3}),
				sharesFor(t, "3.33", 3, []int64{1, 3}),
			},
		},
		{
			name: "everyone fronts something",
			debts: []DebtForBalance{
				sharesFor(t, "10.01", 1, []int64{1, 2, 3, 4}),
				sharesFor(t, "99.99", 2, []int64{1, 2}),
				sharesFor(t, "0.07", 3, []int64{2, 3, 4}),
				sharesFor(t, "55.55", 4, []int64{1, 4}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := NetBalances(tt.debts, nil)
			transfers, err := Simplify(balances)
			if err != nil {
				t.Fatalf("Simplify error: %v", err)
			}

			after := applyTransfers(Positions(balances), transfers)
			for id, pos := range after {
				if !pos.IsZero() {
					t.Errorf("user %d still has position %s after settling", id, pos)
				}
			}
		})
	}
}

func TestSimplifyGreedyOrder(t *testing.T) {
	// 1 fronts 90 for {1,2,3}: 2 and 3 each owe 30. Largest debtor tie
	// breaks toward the lower id.
	balances := NetBalances([]DebtForBalance{
		sharesFor(t, "90.00", 1, []int64{1, 2, 3}),
	}, nil)

	transfers, err := Simplify(balances)
	if err != nil {
		t.Fatalf("Simplify error: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].FromUserID != 2 || transfers[0].ToUserID != 1 || transfers[0].Amount.String() != "30.00" {
		t.Errorf("first transfer = %+v, want 2 -> 1 of 30.00", transfers[0])
	}
	if transfers[1].FromUserID != 3 || transfers[1].ToUserID != 1 || transfers[1].Amount.String() != "30.00" {
		t.Errorf("second transfer = %+v, want 3 -> 1 of 30.00", transfers[1])
	}
}

func TestSimplifyCollapsesChains(t *testing.T) {
	// 2 owes 1 exactly what 3 owes 2: one hop each is enough and user 2
	// drops out entirely once netted.
	balances := PairBalances{
		PairKey(1, 2): amount(t, "-25.00"), // 2 owes 1
		PairKey(2, 3): amount(t, "-25.00"), // 3 owes 2... net says 3 pays 1
	}

	transfers, err := Simplify(balances)
	if err != nil {
		t.Fatalf("Simplify error: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1: %+v", len(transfers), transfers)
	}
	if transfers[0].FromUserID != 3 || transfers[0].ToUserID != 1 || transfers[0].Amount.String() != "25.00" {
		t.Errorf("transfer = %+v, want 3 -> 1 of 25.00", transfers[0])
	}
}

func TestSimplifyEmptyAndZero(t *testing.T) {
	transfers, err := Simplify(PairBalances{})
	if err != nil || len(transfers) != 0 {
		t.Errorf("empty balances: transfers=%v err=%v", transfers, err)
	}

	// A pair that nets to zero contributes nothing.
	balances := PairBalances{PairKey(1, 2): core.Money{}}
	transfers, err = Simplify(balances)
	if err != nil || len(transfers) != 0 {
		t.Errorf("zero balances: transfers=%v err=%v", transfers, err)
	}
}
