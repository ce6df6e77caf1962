package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/epaisa/epaisa_sms/internal/ledger"
	"github.com/epaisa/epaisa_sms/internal/notification"
)

// LoadInput carries the fields of a load-funds request.
type LoadInput struct {
	To          string
	Amount      decimal.NullDecimal
	Description string
	RequestID   string
}

// LoadFunds credits a registered wallet. The ledger entry and the balance
// update commit together.
func (s *Service) LoadFunds(ctx context.Context, sender string, in LoadInput) Result {
	amount := formatAmount(in.Amount)
	firstName, err := s.loadFunds(ctx, sender, in)
	if err != nil {
		s.fail("load funds", in.RequestID, sender, err)
		if KindOf(err) == KindDuplicate {
			return Failure(err)
		}
		s.notify(ctx, sender, notification.LoadFailure(firstName, amount, s.chunks(in.RequestID, false)))
		return Failure(err)
	}

	msg := fmt.Sprintf("load money of amount %s is successful.", amount)
	s.logger.Info(msg, "request_id", in.RequestID, "to", in.To)
	s.notify(ctx, sender, notification.LoadSuccess(firstName, amount, s.chunks(in.RequestID, true)))
	return Result{Success: true, Status: http.StatusOK, Message: msg}
}

// loadFunds returns the target's first name whenever the target is known so
// failure messages can address them.
func (s *Service) loadFunds(ctx context.Context, sender string, in LoadInput) (string, error) {
	target, err := s.store.UserByPhone(ctx, in.To)
	if err != nil {
		if errors.Is(err, ledger.ErrUserNotFound) {
			return "", newError(KindNotFound, err, "user with mobile no. %s does not exists, please register first inorder to load money", in.To)
		}
		return "", newError(KindInternal, err, "something went wrong")
	}
	if !validAmount(in.Amount) {
		return target.FirstName, newError(KindValidation, nil, "amount %s is not valid", formatAmount(in.Amount))
	}
	if err := s.channel.Authorize(sender, in.To); err != nil {
		return target.FirstName, newError(KindAuthenticationMismatch, err, "message sender and registered number are not same")
	}

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		users, err := tx.LockUsers(ctx, in.To)
		if err != nil {
			return err
		}
		locked, ok := users[in.To]
		if !ok {
			return ledger.ErrUserNotFound
		}
		if _, err := tx.CreateTransaction(ctx, ledger.Transaction{
			RequestID:   in.RequestID,
			Kind:        ledger.KindLoadFunds,
			ReceiverID:  locked.ID,
			Amount:      in.Amount.Decimal,
			Description: in.Description,
			Status:      ledger.StatusCompleted,
		}); err != nil {
			return err
		}
		_, err = tx.AdjustBalance(ctx, locked.ID, in.Amount.Decimal)
		return err
	})
	if err != nil {
		return target.FirstName, storeError(err)
	}
	return target.FirstName, nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return newError(KindDuplicate, err, "request already processed")
	case errors.Is(err, ledger.ErrUserNotFound):
		return newError(KindNotFound, err, "user does not exists")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return newError(KindInsufficientFunds, err, "insufficient balance")
	default:
		return newError(KindInternal, err, "error while uploading the transaction")
	}
}
