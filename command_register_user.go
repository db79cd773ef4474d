package osiapp

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(r *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

type RegisterUserResponse struct {
	User       *User  `json:"user,omitempty"`
	ConfirmURL string `json:"confirm_url,omitempty"`
	EmailSent  bool   `json:"email_sent"`
}

// RegisterUserHandler runs the registration workflow: validate, create the
// unconfirmed user inside a transaction, issue a confirmation token and send
// the confirmation email. A failed send does not roll anything back; the
// handler reports it as a degraded success through OnResponse plus
// ErrNotificationFailure.
type RegisterUserHandler struct {
	repo    RepositoryManager
	tokens  *ConfirmationTokenService
	mailer  Mailer
	baseURL string
	logger  Logger
}

// NewRegisterUserHandler wires the registration workflow.
func NewRegisterUserHandler(repo RepositoryManager, tokens *ConfirmationTokenService, mailer Mailer, baseURL string, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{
		repo:    repo,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := ValidateCredentialsPresence(event.Email, event.Password); err != nil {
		return err
	}

	if err := ValidateEmailFormat(event.Email); err != nil {
		return err
	}

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// friendly duplicate check; the unique index still decides racers
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, event.Email); err == nil && existing != nil {
			return ErrDuplicateEmail
		}

		created, err := h.repo.Users().CreateTx(ctx, tx, event.Email, event.Password)
		if err != nil {
			return err
		}

		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		h.logger.Error("register user issue confirmation token", "error", err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
	}

	resp := &RegisterUserResponse{
		User:       user,
		ConfirmURL: ConfirmationURL(h.baseURL, token),
	}

	if err := h.mailer.Send(ConfirmationEmail(user.Email, resp.ConfirmURL)); err != nil {
		// the user record stays; confirmation must be retried out of band
		h.logger.Error("register user send confirmation email", "error", err, "email", user.Email)
		resp.EmailSent = false
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return ErrNotificationFailure
	}

	resp.EmailSent = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
