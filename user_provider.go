package osiapp

import (
	"context"
	"strconv"

	"github.com/goliatone/go-errors"
)

// UserStore is the slice of the credential store the provider needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}

// UserProvider resolves identities from the credential store
type UserProvider struct {
	store  UserStore
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user, compare the password, and return the
// identity. Unknown email and wrong password both return
// ErrInvalidCredentials so the caller cannot tell them apart.
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByEmail(ctx, identifier)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return identityFromUser(user), nil
}

// FindIdentityByIdentifier accepts either the numeric user id carried by
// session subjects or an email address.
func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	var user *User
	var err error

	if id, perr := strconv.ParseInt(identifier, 10, 64); perr == nil {
		user, err = u.store.GetByID(ctx, id)
	} else {
		user, err = u.store.GetByEmail(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return identityFromUser(user), nil
}

type authIdentity struct {
	id        string
	username  string
	email     string
	role      string
	confirmed bool
}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:        strconv.FormatInt(user.ID, 10),
		username:  user.Username(),
		email:     user.Email,
		role:      string(user.Role),
		confirmed: user.Confirmed,
	}
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Username() string {
	return a.username
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) Role() string {
	return a.role
}

// Confirmed reports whether the account completed email confirmation. Login
// does not gate on it; the flag is exposed for callers that want to.
func (a authIdentity) Confirmed() bool {
	return a.confirmed
}

var _ Identity = authIdentity{}
