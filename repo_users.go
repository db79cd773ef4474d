package osiapp

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store. All mutations are transactional; creation
// hashes the raw password before it ever touches the database.
type Users interface {
	Create(ctx context.Context, email, rawPassword string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, email, rawPassword string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	VerifyPassword(user *User, rawPassword string) bool
	MarkConfirmed(ctx context.Context, user *User) error
	MarkConfirmedTx(ctx context.Context, tx bun.IDB, user *User) error
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun backed credential store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (r *users) Create(ctx context.Context, email, rawPassword string) (*User, error) {
	return r.CreateTx(ctx, r.db, email, rawPassword)
}

// CreateTx inserts a new unconfirmed user. The unique index on email
// serializes concurrent registrations; the loser gets ErrDuplicateEmail.
func (r *users) CreateTx(ctx context.Context, tx bun.IDB, email, rawPassword string) (*User, error) {
	hash, err := HashPassword(rawPassword)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		Role:         RoleMember,
		Confirmed:    false,
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return user, nil
}

func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

func (r *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	user := &User{}
	err := tx.NewSelect().
		Model(user).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return user, nil
}

func (r *users) GetByID(ctx context.Context, id int64) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return user, nil
}

// VerifyPassword recomputes the bcrypt comparison for the stored hash.
func (r *users) VerifyPassword(user *User, rawPassword string) bool {
	if user == nil {
		return false
	}
	return ComparePasswordAndHash(rawPassword, user.PasswordHash) == nil
}

func (r *users) MarkConfirmed(ctx context.Context, user *User) error {
	return r.MarkConfirmedTx(ctx, r.db, user)
}

// MarkConfirmedTx flips the confirmed flag. Idempotent: confirming an
// already confirmed user is a no-op, never an error. The flag only ever
// transitions false to true.
func (r *users) MarkConfirmedTx(ctx context.Context, tx bun.IDB, user *User) error {
	if user == nil {
		return ErrIdentityNotFound
	}
	if user.Confirmed {
		return nil
	}

	now := time.Now()
	user.Confirmed = true
	user.UpdatedAt = &now

	if _, err := tx.NewUpdate().
		Model(user).
		Column("is_confirmed", "updated_at").
		WherePK().
		Exec(ctx); err != nil {
		user.Confirmed = false
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not mark user confirmed")
	}

	return nil
}

func (r *users) Update(ctx context.Context, user *User) (*User, error) {
	if user == nil || user.ID == 0 {
		return nil, ErrIdentityNotFound
	}

	now := time.Now()
	user.UpdatedAt = &now

	res, err := r.db.NewUpdate().
		Model(user).
		Column("user_role", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update user")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, ErrIdentityNotFound
	}

	return r.GetByID(ctx, user.ID)
}

// Delete soft deletes the record; the row is retained with deleted_at set.
func (r *users) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete user")
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrIdentityNotFound
	}
	return nil
}
