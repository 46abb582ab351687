package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/404Simon/splitify/internal/core"
)

// CreateUser inserts a user. Users and groups are owned by an external
// system in production; this surface exists so the ledger can be run and
// tested standalone.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, created_at) VALUES (?, ?)",
		username, nowUTC())
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return core.User{ID: id, Username: username}, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Username)
	if isNoRows(err) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateGroup inserts a group and its creator's membership as one unit.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string, createdBy int64) (core.Group, error) {
	var g core.Group
	now := nowUTC()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO groups (name, created_by, created_at, updated_at) VALUES (?, ?, ?, ?)",
			name, createdBy, now, now)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("group id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			id, createdBy); err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		g = core.Group{
			ID:        id,
			Name:      name,
			CreatedBy: createdBy,
			CreatedAt: parseTime(now),
			UpdatedAt: parseTime(now),
		}
		return nil
	})
	if err != nil {
		return core.Group{}, err
	}
	return g, nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id int64) (core.Group, error) {
	var (
		g                    core.Group
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at, updated_at FROM groups WHERE id = ?", id).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &createdAt, &updatedAt)
	if isNoRows(err) {
		return core.Group{}, core.ErrNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("get group: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}

func (r *SQLiteRepository) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)",
		groupID, userID)
	if err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListGroupMembers(ctx context.Context, groupID int64) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username
		FROM users u
		JOIN group_members gm ON gm.user_id = u.id
		WHERE gm.group_id = ?
		ORDER BY u.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var members []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return n > 0, nil
}

// AreGroupMembers reports whether every given user belongs to the group.
func (r *SQLiteRepository) AreGroupMembers(ctx context.Context, groupID int64, userIDs []int64) (bool, error) {
	for _, id := range userIDs {
		ok, err := r.IsGroupMember(ctx, groupID, id)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
