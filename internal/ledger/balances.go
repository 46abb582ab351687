package ledger

import (
	"sort"

	"github.com/404Simon/splitify/internal/core"
)

// DebtForBalance carries the minimal slice of a shared debt the ledger
// needs: who fronted it and the persisted per-participant shares.
type DebtForBalance struct {
	CreatedBy int64
	Shares    []UserShare
}

// TransferForBalance is a settled payer->recipient payment.
type TransferForBalance struct {
	PayerID     int64
	RecipientID int64
	Amount      core.Money
}

// Pair is a canonically ordered user pair: Low < High. Keeping one key per
// unordered pair avoids booking A->B and B->A separately.
type Pair struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// PairKey returns the canonical pair for two distinct users.
func PairKey(a, b int64) Pair {
	if a < b {
		return Pair{Low: a, High: b}
	}
	return Pair{Low: b, High: a}
}

// PairBalances maps each canonical pair to a signed net amount. A positive
// net means Low owes High; negative means High owes Low.
type PairBalances map[Pair]core.Money

// NetBalances folds every shared debt and transaction of a group into net
// pairwise balances.
//
// Per debt, each participant owes the creator their stored share; the
// creator's own share nets to zero and is skipped. Per transaction, a
// payment of X from payer to recipient reduces what the payer owes the
// recipient by X; an over-payment flips the pair's sign symmetrically.
// Accumulation is exact; zero pairs are pruned from the result.
func NetBalances(debts []DebtForBalance, transfers []TransferForBalance) PairBalances {
	nets := make(PairBalances)

	add := func(debtor, creditor int64, amount core.Money) {
		if debtor == creditor {
			return
		}
		key := PairKey(debtor, creditor)
		if debtor == key.Low {
			nets[key] = nets[key].Add(amount)
		} else {
			nets[key] = nets[key].Sub(amount)
		}
	}

	for _, d := range debts {
		for _, s := range d.Shares {
			if s.UserID == d.CreatedBy {
				continue
			}
			add(s.UserID, d.CreatedBy, s.Share)
		}
	}

	for _, t := range transfers {
		// The payment settles what the payer owed the recipient.
		add(t.PayerID, t.RecipientID, t.Amount.Neg())
	}

	for key, net := range nets {
		if net.IsZero() {
			delete(nets, key)
		}
	}
	return nets
}

// Positions collapses pairwise balances into one signed net position per
// user: positive means the user is owed money overall, negative means the
// user owes. The positions of all users always sum to zero.
func Positions(balances PairBalances) map[int64]core.Money {
	positions := make(map[int64]core.Money)
	for pair, net := range balances {
		// Low owes High when net is positive.
		positions[pair.Low] = positions[pair.Low].Sub(net)
		positions[pair.High] = positions[pair.High].Add(net)
	}
	return positions
}

// SortedPairs returns the balance keys in deterministic order for stable
// output.
func SortedPairs(balances PairBalances) []Pair {
	pairs := make([]Pair, 0, len(balances))
	for p := range balances {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Low != pairs[j].Low {
			return pairs[i].Low < pairs[j].Low
		}
		return pairs[i].High < pairs[j].High
	})
	return pairs
}
