package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/404Simon/splitify/internal/core"
	"github.com/404Simon/splitify/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// seedGroup creates n users and a group owned by the first of them, with
// all of them as members. Returns the group id and the user ids in
// creation order.
func seedGroup(t *testing.T, repo *storage.SQLiteRepository, usernames ...string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	userIDs := make([]int64, len(usernames))
	for i, name := range usernames {
		u, err := repo.CreateUser(ctx, name)
		if err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
		userIDs[i] = u.ID
	}

	group, err := repo.CreateGroup(ctx, "trip", userIDs[0])
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, id := range userIDs[1:] {
		if err := repo.AddGroupMember(ctx, group.ID, id); err != nil {
			t.Fatalf("add member %d: %v", id, err)
		}
	}
	return group.ID, userIDs
}

func amount(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return m
}
