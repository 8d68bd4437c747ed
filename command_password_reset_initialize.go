package session

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetStep step on password reset
type PasswordResetStep = string

const (
	// ResetUnknown is the unknown status
	ResetUnknown PasswordResetStep = "unknown"
	// ResetInit is the initial step
	ResetInit PasswordResetStep = "show-reset"
	// AccountVerification notification sent
	AccountVerification PasswordResetStep = "email-sent"
	// ChangingPassword user will change password
	ChangingPassword PasswordResetStep = "change-password"
	// ChangeFinalized processing change
	ChangeFinalized PasswordResetStep = "password-changed"
)

type InitializePasswordResetMessage struct {
	Stage      string `json:"stage" doc:"Password reset stage."`
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "session.password_reset" }

type InitializePasswordResetResponse struct {
	Stage   string
	Success bool
}

type InitializePasswordResetHandler struct {
	provider IdentityProvider
	logger   Logger
}

func NewInitializePasswordResetHandler(provider IdentityProvider) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		provider: provider,
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Stage != ResetInit {
		return goerrors.New("unknown or invalid stage for password reset initialization", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"stage": event.Stage})
	}

	if err := validation.Validate(event.Email, validation.Required, is.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid email for password reset")
	}

	if err := h.provider.SendPasswordReset(ctx, event.Email); err != nil {
		// Account-not-found is deliberately reported as success so the
		// endpoint does not leak which emails exist.
		if goerrors.Is(err, ErrAccountNotFound) {
			h.logger.Debug("Password reset requested for unknown account")
		} else if IsCriticalAuthError(err) {
			return err
		} else {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to request password reset")
		}
	}

	resp.Stage = AccountVerification
	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
