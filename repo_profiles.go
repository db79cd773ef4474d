package osiapp

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Profiles persists the profile records associated with users.
type Profiles interface {
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) (*Profile, error)
	UpsertTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error)
}

type profiles struct {
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

// NewProfilesRepository builds the bun backed profile store.
func NewProfilesRepository(db *bun.DB) Profiles {
	return &profiles{db: db}
}

func (r *profiles) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	profile := &Profile{}
	err := r.db.NewSelect().
		Model(profile).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return profile, nil
}

func (r *profiles) Upsert(ctx context.Context, profile *Profile) (*Profile, error) {
	return r.UpsertTx(ctx, r.db, profile)
}

// UpsertTx creates the profile on first write and updates it afterwards; one
// profile per user, enforced by the unique index on user_id.
func (r *profiles) UpsertTx(ctx context.Context, tx bun.IDB, profile *Profile) (*Profile, error) {
	if profile == nil || profile.UserID == 0 {
		return nil, goerrors.New("profile requires a user id", goerrors.CategoryBadInput)
	}

	now := time.Now()
	profile.UpdatedAt = &now

	if _, err := tx.NewInsert().
		Model(profile).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("bio = EXCLUDED.bio").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not upsert profile")
	}

	return profile, nil
}
