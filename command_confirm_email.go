package osiapp

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(r *ConfirmEmailResponse)
}

func (e ConfirmEmailMessage) Type() string { return "user.confirm_email" }

type ConfirmEmailResponse struct {
	User             *User `json:"user,omitempty"`
	AlreadyConfirmed bool  `json:"already_confirmed"`
}

// ConfirmEmailHandler verifies a confirmation token and flips the matching
// account to confirmed. Every failure mode collapses into
// ErrInvalidOrExpiredToken so callers cannot probe for account existence.
type ConfirmEmailHandler struct {
	repo   RepositoryManager
	tokens *ConfirmationTokenService
	maxAge time.Duration
	logger Logger
}

func NewConfirmEmailHandler(repo RepositoryManager, tokens *ConfirmationTokenService, maxAge time.Duration, logger Logger) *ConfirmEmailHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &ConfirmEmailHandler{
		repo:   repo,
		tokens: tokens,
		maxAge: maxAge,
		logger: logger,
	}
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	email, err := h.tokens.Verify(event.Token, h.maxAge)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	alreadyConfirmed := false

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := h.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if IsNotFoundError(err) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}

		alreadyConfirmed = found.Confirmed

		if err := h.repo.Users().MarkConfirmedTx(ctx, tx, found); err != nil {
			return err
		}

		user = found
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		h.logger.Error("confirm email transaction", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email confirmation transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmEmailResponse{
			User:             user,
			AlreadyConfirmed: alreadyConfirmed,
		})
	}

	return nil
}
