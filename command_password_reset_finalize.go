package session

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Stage      string `json:"stage" doc:"Password reset stage."`
	Code       string `json:"code" doc:"Out-of-band reset code from the provider email."`
	Password   string `json:"password" doc:"New password."`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "session.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Email   string
	Stage   string
	Success bool
}

type FinalizePasswordResetHandler struct {
	provider IdentityProvider
	logger   Logger
	sink     ActivitySink
}

func NewFinalizePasswordResetHandler(provider IdentityProvider) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		provider: provider,
		logger:   defLogger{},
		sink:     noopActivitySink{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithActivitySink configures an ActivitySink for the password-changed event.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Stage != ChangingPassword {
		return goerrors.New("unknown or invalid stage for password reset finalization", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"stage": event.Stage})
	}

	if err := validation.Validate(event.Password, validation.Required, validation.Length(8, 128)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid new password")
	}

	email, err := h.provider.VerifyPasswordResetCode(ctx, event.Code)
	if err != nil {
		if IsCriticalAuthError(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to verify password reset code")
	}

	if err := h.provider.ConfirmPasswordReset(ctx, event.Code, event.Password); err != nil {
		if IsCriticalAuthError(err) {
			return err
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to confirm password reset")
	}

	resp.Email = email
	resp.Stage = ChangeFinalized
	resp.Success = true

	sink := normalizeActivitySink(h.sink)
	if err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordReset,
		UserID:     email,
		OccurredAt: time.Now(),
		Metadata:   map[string]any{"stage": ChangeFinalized},
	}); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
