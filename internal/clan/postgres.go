// internal/clan/postgres.go
package clan

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory persists clans in two tables: clans and clan_members.
// Ranking is computed at query time with a window over (score, kills).
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory wraps an existing pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

const rankedClansQuery = `
SELECT c.name, c.leader, c.score, c.kills,
       (SELECT count(*) FROM clan_members m WHERE m.clan_name = c.name) AS num_players,
       row_number() OVER (ORDER BY c.score DESC, c.kills DESC) AS rank
FROM clans c
`

func (d *PostgresDirectory) Create(ctx context.Context, name, leader string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var member string
		err := tx.QueryRow(ctx,
			`SELECT username FROM clan_members WHERE username=$1`, leader).Scan(&member)
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check membership: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO clans (name, leader, score, kills)
			 VALUES ($1, $2, 0, 0)
			 ON CONFLICT (name) DO NOTHING`, name, leader)
		if err != nil {
			return fmt.Errorf("insert clan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNameTaken
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO clan_members (clan_name, username) VALUES ($1, $2)`,
			name, leader)
		if err != nil {
			return fmt.Errorf("insert leader membership: %w", err)
		}
		return nil
	})
}

func (d *PostgresDirectory) AddPlayer(ctx context.Context, name, username string) error {
	return pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var member string
		err := tx.QueryRow(ctx,
			`SELECT username FROM clan_members WHERE username=$1`, username).Scan(&member)
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check membership: %w", err)
		}

		var clanName string
		err = tx.QueryRow(ctx, `SELECT name FROM clans WHERE name=$1`, name).Scan(&clanName)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup clan: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO clan_members (clan_name, username) VALUES ($1, $2)`,
			name, username)
		if err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
		return nil
	})
}

func (d *PostgresDirectory) RemovePlayer(ctx context.Context, username string) (bool, string, error) {
	var dissolved bool
	var clanName string
	err := pgx.BeginTxFunc(ctx, d.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var leader string
		err := tx.QueryRow(ctx,
			`SELECT c.name, c.leader FROM clans c
			 JOIN clan_members m ON m.clan_name = c.name
			 WHERE m.username=$1`, username).Scan(&clanName, &leader)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup membership: %w", err)
		}

		if leader == username {
			// The leader leaving dissolves the clan entirely.
			if _, err := tx.Exec(ctx,
				`DELETE FROM clan_members WHERE clan_name=$1`, clanName); err != nil {
				return fmt.Errorf("delete members: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`DELETE FROM clans WHERE name=$1`, clanName); err != nil {
				return fmt.Errorf("delete clan: %w", err)
			}
			dissolved = true
			return nil
		}
		_, err = tx.Exec(ctx,
			`DELETE FROM clan_members WHERE username=$1`, username)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, "", err
	}
	return dissolved, clanName, nil
}

func (d *PostgresDirectory) FindByPlayer(ctx context.Context, username string) (*Info, bool, error) {
	q := `
	SELECT r.name, r.leader, r.score, r.kills, r.num_players, r.rank
	FROM (` + rankedClansQuery + `) r
	JOIN clan_members m ON m.clan_name = r.name
	WHERE m.username=$1
	`
	var info Info
	err := d.pool.QueryRow(ctx, q, username).Scan(
		&info.Name, &info.Leader, &info.Score, &info.Kills,
		&info.NumPlayers, &info.Rank,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("query membership: %w", err)
	}
	return &info, info.Leader == username, nil
}

func (d *PostgresDirectory) FindByName(ctx context.Context, name string) (*Info, error) {
	q := `SELECT r.name, r.leader, r.score, r.kills, r.num_players, r.rank
	      FROM (` + rankedClansQuery + `) r WHERE r.name=$1`
	var info Info
	err := d.pool.QueryRow(ctx, q, name).Scan(
		&info.Name, &info.Leader, &info.Score, &info.Kills,
		&info.NumPlayers, &info.Rank,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query clan: %w", err)
	}
	return &info, nil
}

func (d *PostgresDirectory) ListRanked(ctx context.Context) ([]Info, error) {
	q := `SELECT r.name, r.leader, r.score, r.kills, r.num_players, r.rank
	      FROM (` + rankedClansQuery + `) r ORDER BY r.rank`
	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query clans: %w", err)
	}
	defer rows.Close()

	var clans []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(
			&info.Name, &info.Leader, &info.Score, &info.Kills,
			&info.NumPlayers, &info.Rank,
		); err != nil {
			return nil, fmt.Errorf("scan clan: %w", err)
		}
		clans = append(clans, info)
	}
	return clans, rows.Err()
}

func (d *PostgresDirectory) Members(ctx context.Context, name string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT username FROM clan_members WHERE clan_name=$1 ORDER BY username`, name)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (d *PostgresDirectory) IncrementScore(ctx context.Context, name string, score, kills int64) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE clans SET score = score + $2, kills = kills + $3, updated_at = now()
		 WHERE name=$1`, name, score, kills)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
