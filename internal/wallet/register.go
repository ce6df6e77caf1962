package wallet

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/epaisa/epaisa_sms/internal/auth"
	"github.com/epaisa/epaisa_sms/internal/ledger"
	"github.com/epaisa/epaisa_sms/internal/notification"
)

// RegisterInput carries the fields of a register request.
type RegisterInput struct {
	Phone     string
	FirstName string
	PIN       string
	RequestID string
}

// Register creates a wallet owner with a zero balance. The channel identity
// must be the phone being registered.
func (s *Service) Register(ctx context.Context, sender string, in RegisterInput) Result {
	user, err := s.register(ctx, sender, in)
	if err != nil {
		s.fail("register", in.RequestID, sender, err)
		s.notify(ctx, sender, notification.RegistrationFailure(in.FirstName, s.chunks(in.RequestID, false)))
		return Failure(err)
	}

	s.logger.Info("user registered", "request_id", in.RequestID, "user_id", user.ID)
	s.notify(ctx, sender, notification.RegistrationSuccess(user.FirstName, s.chunks(in.RequestID, true)))
	return Result{Success: true, Status: http.StatusCreated, Message: "User is created with id: " + user.ID}
}

func (s *Service) register(ctx context.Context, sender string, in RegisterInput) (ledger.User, error) {
	if in.Phone == "" {
		return ledger.User{}, newError(KindValidation, nil, "mobile number is required")
	}
	if err := s.channel.Authorize(sender, in.Phone); err != nil {
		return ledger.User{}, newError(KindAuthenticationMismatch, err, "message sender and registration number are not same")
	}

	_, err := s.store.UserByPhone(ctx, in.Phone)
	switch {
	case err == nil:
		return ledger.User{}, newError(KindConflict, ledger.ErrPhoneTaken, "user with mobile number %s already exists", in.Phone)
	case !errors.Is(err, ledger.ErrUserNotFound):
		return ledger.User{}, newError(KindInternal, err, "something went wrong")
	}

	hash, err := auth.HashPIN(in.PIN)
	if err != nil {
		return ledger.User{}, newError(KindInternal, err, "something went wrong")
	}

	user, err := s.store.CreateUser(ctx, ledger.User{
		Phone:     in.Phone,
		FirstName: in.FirstName,
		PINHash:   hash,
		Balance:   decimal.Zero,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrPhoneTaken) {
			return ledger.User{}, newError(KindConflict, err, "user with mobile number %s already exists", in.Phone)
		}
		return ledger.User{}, newError(KindInternal, err, "something went wrong")
	}
	return user, nil
}
