// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

// Repository is the user store. Find methods fail with a wrapped
// core.ErrNotFound when nothing matches.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	Save(ctx context.Context, user *User) error
	Count(ctx context.Context) (total int, active int, err error)
}

type repository struct {
	db core.Pool
}

func NewRepository(db core.Pool) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, password_hash, created_at, modified_at,
		       last_login_at, is_active, token`

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := r.attach(ctx, []*User{&user}); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if err := r.attach(ctx, []*User{&user}); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindAll(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	ptrs := make([]*User, 0, len(users))
	for i := range users {
		ptrs = append(ptrs, &users[i])
	}

	if err := r.attach(ctx, ptrs); err != nil {
		return nil, err
	}

	return users, nil
}

// Save upserts the user row and replaces its phones in one transaction. The
// email column is never rewritten on conflict.
func (r *repository) Save(ctx context.Context, user *User) error {
	isNew := user.ID == ""
	if isNew {
		user.ID = uuid.New().String()
	}

	err := core.InTx(ctx, r.db, func(tx core.DBTX) error {
		query := `
			INSERT INTO users (id, name, email, password_hash, created_at,
			                   modified_at, last_login_at, is_active, token)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    password_hash = EXCLUDED.password_hash,
			    modified_at = EXCLUDED.modified_at,
			    last_login_at = EXCLUDED.last_login_at,
			    is_active = EXCLUDED.is_active,
			    token = EXCLUDED.token`

		_, err := tx.ExecContext(ctx, query,
			user.ID,
			user.Name,
			user.Email,
			user.Password,
			user.CreatedAt,
			user.ModifiedAt,
			user.LastLoginAt,
			user.IsActive,
			user.Token,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("save user: %w", core.ErrDuplicateKey)
			}
			return fmt.Errorf("save user: %w", err)
		}

		return replacePhones(ctx, tx, user.ID, user.Phones)
	})
	if err != nil {
		if isNew {
			user.ID = ""
		}
		return err
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, int, error) {
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE is_active) AS active
		FROM users`

	var counts struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return 0, 0, fmt.Errorf("count users: %w", err)
	}

	return counts.Total, counts.Active, nil
}

func replacePhones(
	ctx context.Context,
	tx core.DBTX,
	userID string,
	phones []Phone,
) error {
	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM phones WHERE user_id = $1`,
		userID,
	); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}

	query := `
		INSERT INTO phones (user_id, position, number, city_code, country_code)
		VALUES ($1, $2, $3, $4, $5)`

	for i, p := range phones {
		if _, err := tx.ExecContext(ctx, query,
			userID,
			i,
			p.Number,
			p.CityCode,
			p.CountryCode,
		); err != nil {
			return fmt.Errorf("insert phone: %w", err)
		}
	}

	return nil
}

type phoneRow struct {
	UserID string `db:"user_id"`
	Phone
}

type roleRow struct {
	UserID string `db:"user_id"`
	Role
}

// attach loads phones and roles for all users with one query each.
func (r *repository) attach(ctx context.Context, users []*User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[string]*User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		u.Phones = []Phone{}
		u.Roles = []Role{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	phoneQuery, args, err := sqlx.In(`
		SELECT user_id, number, city_code, country_code
		FROM phones
		WHERE user_id IN (?)
		ORDER BY user_id, position`, ids)
	if err != nil {
		return fmt.Errorf("build phones query: %w", err)
	}

	var phones []phoneRow
	if err := r.db.SelectContext(
		ctx,
		&phones,
		r.db.Rebind(phoneQuery),
		args...,
	); err != nil {
		return fmt.Errorf("load phones: %w", err)
	}
	for _, p := range phones {
		if u, ok := byID[p.UserID]; ok {
			u.Phones = append(u.Phones, p.Phone)
		}
	}

	roleQuery, args, err := sqlx.In(`
		SELECT ur.user_id, r.id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id IN (?)
		ORDER BY r.name`, ids)
	if err != nil {
		return fmt.Errorf("build roles query: %w", err)
	}

	var roles []roleRow
	if err := r.db.SelectContext(
		ctx,
		&roles,
		r.db.Rebind(roleQuery),
		args...,
	); err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	for _, rr := range roles {
		if u, ok := byID[rr.UserID]; ok {
			u.Roles = append(u.Roles, rr.Role)
		}
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
