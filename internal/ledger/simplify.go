package ledger

import (
	"fmt"

	"github.com/404Simon/splitify/internal/core"
)

// Transfer is one suggested settling payment.
type Transfer struct {
	FromUserID int64      `json:"from_user_id"`
	ToUserID   int64      `json:"to_user_id"`
	Amount     core.Money `json:"amount"`
}

// Simplify reduces a group's pairwise balances to a minimal ordered list
// of settling transfers: repeatedly match the largest debtor with the
// largest creditor and transfer min(debt, credit) until every position is
// zero. Ties on magnitude break toward the lower user id, so the output
// is deterministic.
//
// Applying all transfers zeroes every position exactly. A residue after
// matching would mean the input itself was inconsistent; that is reported
// as an error rather than rounded away.
func Simplify(balances PairBalances) ([]Transfer, error) {
	positions := Positions(balances)

	// Drop settled users up front.
	for id, pos := range positions {
		if pos.IsZero() {
			delete(positions, id)
		}
	}

	var transfers []Transfer
	for len(positions) > 0 {
		debtor, creditor := int64(0), int64(0)
		var owes, owed core.Money

		for id, pos := range positions {
			switch {
			case pos.Sign() < 0:
				amt := pos.Abs()
				if c := amt.Cmp(owes); c > 0 || (c == 0 && (debtor == 0 || id < debtor)) {
					debtor, owes = id, amt
				}
			case pos.Sign() > 0:
				if c := pos.Cmp(owed); c > 0 || (c == 0 && (creditor == 0 || id < creditor)) {
					creditor, owed = id, pos
				}
			}
		}

		if owes.IsZero() || owed.IsZero() {
			// One side ran out while the other still has balance; the
			// positions did not conserve to zero.
			return nil, fmt.Errorf("debt simplification: positions do not net to zero (residual debtor=%s creditor=%s)", owes, owed)
		}

		amount := owes
		if owed.Cmp(amount) < 0 {
			amount = owed
		}
		transfers = append(transfers, Transfer{FromUserID: debtor, ToUserID: creditor, Amount: amount})

		positions[debtor] = positions[debtor].Add(amount)
		positions[creditor] = positions[creditor].Sub(amount)
		if positions[debtor].IsZero() {
			delete(positions, debtor)
		}
		if positions[creditor].IsZero() {
			delete(positions, creditor)
		}
	}

	return transfers, nil
}
