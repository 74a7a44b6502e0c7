package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"

	"notechat/internal/backend"
)

// GroupsForUser returns every group the user belongs to, each with its full
// member roster.
func (s *Store) GroupsForUser(ctx context.Context, userID int64) ([]backend.Group, error) {
	s.logger.Debugf("Retrieving groups for user (id: %d)", userID)

	sql := ` -- groups of one user with all their members
			with user_groups as (
				select groups.id,
					   groups.name,
					   groups.created_by,
					   groups.created_at
				  from groups
				  join group_members
					on group_members.group_id = groups.id
				 where group_members.user_id = $1
			)

			select user_groups.id,
				   trim(user_groups.name),
				   user_groups.created_by,
				   user_groups.created_at,
				   profiles.id,
				   trim(profiles.username),
				   profiles.email,
				   profiles.created_at
			  from user_groups
			  join group_members
				on group_members.group_id = user_groups.id
			  join profiles
				on profiles.id = group_members.user_id
			 order by user_groups.id, profiles.id`

	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []backend.Group
	for rows.Next() {
		var (
			g backend.Group
			p backend.Profile
		)
		err = rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &p.ID, &p.Username, &p.Email, &p.CreatedAt)
		if err != nil {
			return nil, err
		}

		if len(groups) == 0 || groups[len(groups)-1].ID != g.ID {
			groups = append(groups, g)
		}
		last := &groups[len(groups)-1]
		last.Members = append(last.Members, p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d groups", len(groups))

	return groups, nil
}

// CreateGroup performs a two-step transaction (insert the group record, bulk
// insert the membership rows including the creator) and returns the group
// with its roster.
func (s *Store) CreateGroup(ctx context.Context, name string, creator int64, memberIDs []int64) (backend.Group, error) {
	s.logger.Debugf("Creating group (%s) by user %d with members %v", name, creator, memberIDs)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return backend.Group{}, err
	}
	// error handling can be omitted for rollback according docs
	// see https://pkg.go.dev/github.com/jackc/pgx/v4?tab=doc#hdr-Transactions or any source comment on Rollback
	defer tx.Rollback(context.Background())

	group := backend.Group{Name: name, CreatedBy: creator}
	sql := "insert into groups (name, created_by, created_at) values ($1, $2, now()) returning id, created_at"
	err = tx.QueryRow(ctx, sql, name, creator).Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return backend.Group{}, backend.ErrGroupExists
		}
		return backend.Group{}, err
	}

	members := append(append([]int64(nil), memberIDs...), creator)
	memberRows := make([]memberRow, 0, len(members))
	for _, userID := range members {
		memberRows = append(memberRows, memberRow{groupID: group.ID, userID: userID})
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"group_members"}, []string{"group_id", "user_id"}, copyFromMembers(memberRows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return backend.Group{}, backend.ErrBadMembers
		}
		return backend.Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return backend.Group{}, err
	}

	sqlMembers := `select id, trim(username), email, created_at from profiles where id = any($1) order by id`
	rows, err := s.db.Query(ctx, sqlMembers, members)
	if err != nil {
		return backend.Group{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p backend.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.CreatedAt); err != nil {
			return backend.Group{}, err
		}
		group.Members = append(group.Members, p)
	}
	if rows.Err() != nil {
		return backend.Group{}, rows.Err()
	}

	s.logger.Debugf("Created group (%s) with id %d", name, group.ID)

	return group, nil
}
