package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/404Simon/splitify/internal/cache"
	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/ledger"
	"github.com/404Simon/splitify/internal/storage"
)

// BalanceEntry is one pairwise debt in a group: FromUserID owes
// ToUserID the (positive) amount.
type BalanceEntry struct {
	FromUserID int64      `json:"from_user_id"`
	ToUserID   int64      `json:"to_user_id"`
	Amount     core.Money `json:"amount"`
}

// BalanceReport is the full balance view of a group: pairwise debts plus
// each member's overall position (negative = owes the group, positive =
// is owed). Positions always sum to zero.
type BalanceReport struct {
	GroupID   int64                `json:"group_id"`
	Balances  []BalanceEntry       `json:"balances"`
	Positions map[int64]core.Money `json:"positions"`
}

// BalanceService computes group balances and settle-up suggestions.
// Reads are deduplicated with singleflight and cached per group; every
// ledger-affecting write invalidates the group's entry.
type BalanceService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRUCache[int64, ledger.PairBalances]
	group   singleflight.Group
}

func NewBalanceService(storage *storage.SQLiteRepository, maxGroups int, ttl time.Duration) *BalanceService {
	return &BalanceService{
		storage: storage,
		cache:   cache.NewLRUCache[int64, ledger.PairBalances](maxGroups, ttl),
	}
}

// Cache exposes the balance cache for cleanup registration.
func (s *BalanceService) Cache() cache.Cleaner {
	return s.cache
}

// Invalidate drops the cached balances of a group.
func (s *BalanceService) Invalidate(groupID int64) {
	s.cache.Delete(groupID)
}

// GroupBalances returns the group's pairwise balances and per-member
// positions.
func (s *BalanceService) GroupBalances(ctx context.Context, groupID int64) (BalanceReport, error) {
	balances, err := s.pairBalances(ctx, groupID)
	if err != nil {
		return BalanceReport{}, err
	}

	report := BalanceReport{
		GroupID:   groupID,
		Balances:  make([]BalanceEntry, 0, len(balances)),
		Positions: ledger.Positions(balances),
	}
	for _, pair := range ledger.SortedPairs(balances) {
		net := balances[pair]
		entry := BalanceEntry{FromUserID: pair.Low, ToUserID: pair.High, Amount: net}
		if net.Sign() < 0 {
			entry = BalanceEntry{FromUserID: pair.High, ToUserID: pair.Low, Amount: net.Neg()}
		}
		report.Balances = append(report.Balances, entry)
	}
	return report, nil
}

// SettleUp returns a minimal set of transfers that clears all balances
// in the group.
func (s *BalanceService) SettleUp(ctx context.Context, groupID int64) ([]ledger.Transfer, error) {
	balances, err := s.pairBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	transfers, err := ledger.Simplify(balances)
	if err != nil {
		return nil, fmt.Errorf("simplify balances for group %d: %w", groupID, err)
	}
	return transfers, nil
}

// pairBalances loads the group's ledger and folds it into net pairwise
// balances, deduplicating concurrent computations per group.
func (s *BalanceService) pairBalances(ctx context.Context, groupID int64) (ledger.PairBalances, error) {
	if cached, ok := s.cache.Get(groupID); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(strconv.FormatInt(groupID, 10), func() (any, error) {
		if cached, ok := s.cache.Get(groupID); ok {
			return cached, nil
		}
		balances, err := s.compute(ctx, groupID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(groupID, balances)
		return balances, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ledger.PairBalances), nil
}

func (s *BalanceService) compute(ctx context.Context, groupID int64) (ledger.PairBalances, error) {
	if _, err := s.storage.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	debts, err := s.storage.ListSharedDebts(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list shared debts: %w", err)
	}
	shares, err := s.storage.ListGroupDebtShares(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list debt shares: %w", err)
	}
	transactions, err := s.storage.ListTransactions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	sharesByDebt := make(map[int64][]ledger.UserShare, len(debts))
	for _, share := range shares {
		sharesByDebt[share.SharedDebtID] = append(sharesByDebt[share.SharedDebtID],
			ledger.UserShare{UserID: share.UserID, Share: share.Share})
	}

	forBalance := make([]ledger.DebtForBalance, 0, len(debts))
	for _, debt := range debts {
		forBalance = append(forBalance, ledger.DebtForBalance{
			CreatedBy: debt.CreatedBy,
			Shares:    sharesByDebt[debt.ID],
		})
	}

	transfers := make([]ledger.TransferForBalance, len(transactions))
	for i, t := range transactions {
		transfers[i] = ledger.TransferForBalance{
			PayerID:     t.PayerID,
			RecipientID: t.RecipientID,
			Amount:      t.Amount,
		}
	}

	return ledger.NetBalances(forBalance, transfers), nil
}
