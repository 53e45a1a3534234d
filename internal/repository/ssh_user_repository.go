package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SSHUser is a registered dashboard user. Watchlist holds stock codes in the
// order the user added them.
type SSHUser struct {
	ID          int64
	Username    string
	DisplayName string
	PublicKey   string
	KeyType     string
	Fingerprint string
	Watchlist   []string
	IsActive    bool
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const sshUserColumns = `id, username, display_name, public_key, key_type, fingerprint,
		        watchlist, is_active, last_login_at, created_at, updated_at`

type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

// FindByFingerprint returns nil, nil when no active user owns the key.
func (r *SSHUserRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.find-by-fingerprint")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+sshUserColumns+`
		 FROM ssh_users
		 WHERE fingerprint = $1 AND is_active = TRUE`,
		fingerprint,
	)

	u, err := scanSSHUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SSHUserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.update-last-login")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`UPDATE ssh_users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`,
		userID,
	)
	return err
}

func (r *SSHUserRepository) SetWatchlist(ctx context.Context, userID int64, codes []string) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.set-watchlist")
	defer span.End()
	span.SetAttributes(attribute.Int("watchlist.size", len(codes)))

	if codes == nil {
		codes = []string{}
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE ssh_users SET watchlist = $2, updated_at = NOW() WHERE id = $1`,
		userID, codes,
	)
	return err
}

func (r *SSHUserRepository) ListActive(ctx context.Context) ([]SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.list-active")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+sshUserColumns+`
		 FROM ssh_users
		 WHERE is_active = TRUE
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []SSHUser
	for rows.Next() {
		u, err := scanSSHUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSSHUser(row rowScanner) (*SSHUser, error) {
	var u SSHUser
	var lastLogin *time.Time
	if err := row.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.PublicKey, &u.KeyType,
		&u.Fingerprint, &u.Watchlist, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.LastLoginAt = lastLogin
	if u.Watchlist == nil {
		u.Watchlist = []string{}
	}
	return &u, nil
}
