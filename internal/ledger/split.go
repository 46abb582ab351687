// Package ledger contains the pure balance arithmetic: splitting a total
// into per-participant shares, netting a group's debts and transactions
// into pairwise balances, and reducing those balances to a minimal set of
// settling transfers. Everything here is exact Money arithmetic over data
// the caller already loaded; the package never touches storage.
package ledger

import (
	"sort"

	"github.com/404Simon/splitify/internal/core"
)

// UserShare is one participant's computed share of a total.
type UserShare struct {
	UserID int64      `json:"user_id"`
	Share  core.Money `json:"share"`
}

// ComputeShares splits a positive total equally across the given
// participants. This is the only place in the system allowed to divide an
// amount; every other component treats persisted shares as authoritative.
//
// The shares sum to the total exactly. When the total does not divide
// evenly, the leftover cents go one each to the first participants in the
// slice, so the caller's ordering decides who pays the extra cent (see
// ShareOrder for the ordering used on debt creation).
func ComputeShares(total core.Money, participantIDs []int64) ([]UserShare, error) {
	if len(participantIDs) == 0 {
		return nil, core.ErrEmptyParticipantSet
	}
	seen := make(map[int64]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		if _, dup := seen[id]; dup {
			return nil, core.ErrDuplicateParticipant
		}
		seen[id] = struct{}{}
	}
	if total.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	parts := total.SplitEqually(len(participantIDs))
	shares := make([]UserShare, len(participantIDs))
	for i, id := range participantIDs {
		shares[i] = UserShare{UserID: id, Share: parts[i]}
	}
	return shares, nil
}

// ShareOrder returns the participant ordering used when a debt is created:
// ascending user id with the creator moved last. Remainder cents therefore
// land on the other participants before the creator, who already fronted
// the money.
func ShareOrder(participantIDs []int64, creatorID int64) []int64 {
	ordered := make([]int64, 0, len(participantIDs))
	creatorPresent := false
	for _, id := range participantIDs {
		if id == creatorID {
			creatorPresent = true
			continue
		}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	if creatorPresent {
		ordered = append(ordered, creatorID)
	}
	return ordered
}
