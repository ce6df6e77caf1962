package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/epaisa/epaisa_sms/internal/auth"
	"github.com/epaisa/epaisa_sms/internal/ledger"
	"github.com/epaisa/epaisa_sms/internal/notification"
)

// TransferInput carries the fields of a transfer-funds request.
type TransferInput struct {
	From        string
	To          string
	Amount      decimal.NullDecimal
	PIN         string
	Description string
	RequestID   string
}

// TransferFunds moves money from From to To. The inbound channel must be the
// receiving party (prefix+To); the PIN authorises the debit. Both parties are
// notified of the outcome: From by its literal number, the receiver through
// the channel identity.
func (s *Service) TransferFunds(ctx context.Context, sender string, in TransferInput) Result {
	amount := formatAmount(in.Amount)
	receiverName, err := s.transferFunds(ctx, sender, in)
	if err != nil {
		s.fail("transfer funds", in.RequestID, sender, err)
		if KindOf(err) == KindDuplicate {
			return Failure(err)
		}
		if receiverName == "" && in.To != "" {
			if u, lookupErr := s.store.UserByPhone(ctx, in.To); lookupErr == nil {
				receiverName = u.FirstName
			}
		}
		chunks := s.chunks(in.RequestID, false)
		s.notify(ctx, in.From, notification.TransferFailureToSender(amount, in.To, chunks))
		s.notify(ctx, sender, notification.TransferFailureToReceiver(receiverName, amount, in.From, chunks))
		return Failure(err)
	}

	msg := fmt.Sprintf("send money of amount %s from user %s to user %s is successful.", amount, in.From, in.To)
	s.logger.Info(msg, "request_id", in.RequestID)
	chunks := s.chunks(in.RequestID, true)
	s.notify(ctx, in.From, notification.TransferSuccessToSender(amount, in.To, chunks))
	s.notify(ctx, sender, notification.TransferSuccessToReceiver(receiverName, amount, in.From, chunks))
	return Result{Success: true, Status: http.StatusOK, Message: msg}
}

func (s *Service) transferFunds(ctx context.Context, sender string, in TransferInput) (string, error) {
	if !validAmount(in.Amount) || in.To == "" || in.From == "" || in.PIN == "" {
		return "", newError(KindValidation, nil, "amount %s or sender or receiver data is not valid", formatAmount(in.Amount))
	}
	if in.From == in.To {
		return "", newError(KindValidation, nil, "sender and receiver must differ")
	}
	if err := s.channel.Authorize(sender, in.To); err != nil {
		return "", newError(KindAuthenticationMismatch, err, "message sender and registered number are not same")
	}

	var receiverName string
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		users, err := tx.LockUsers(ctx, in.From, in.To)
		if err != nil {
			return err
		}

		from, ok := users[in.From]
		if !ok {
			return newError(KindNotFound, ledger.ErrUserNotFound, "user with mobile no. %s does not exists, please register first inorder to send money", in.From)
		}
		if from.Balance.LessThan(in.Amount.Decimal) {
			return newError(KindInsufficientFunds, ledger.ErrInsufficientFunds, "user with mobile no. %s does not have sufficient balance", in.From)
		}
		if err := auth.VerifyPIN(from.PINHash, in.PIN); err != nil {
			return newError(KindAuthenticationFailed, err, "authentication failed for user with mobile no. %s", in.From)
		}
		to, ok := users[in.To]
		if !ok {
			return newError(KindNotFound, ledger.ErrUserNotFound, "user with mobile no. %s does not exists, please register first inorder to send money", in.To)
		}
		receiverName = to.FirstName

		if _, err := tx.CreateTransaction(ctx, ledger.Transaction{
			RequestID:   in.RequestID,
			Kind:        ledger.KindTransferFunds,
			SenderID:    from.ID,
			ReceiverID:  to.ID,
			Amount:      in.Amount.Decimal,
			Description: in.Description,
			Status:      ledger.StatusCompleted,
		}); err != nil {
			return err
		}
		if _, err := tx.AdjustBalance(ctx, from.ID, in.Amount.Decimal.Neg()); err != nil {
			return err
		}
		_, err = tx.AdjustBalance(ctx, to.ID, in.Amount.Decimal)
		return err
	})
	if err != nil {
		var werr *Error
		if errors.As(err, &werr) {
			return receiverName, err
		}
		return receiverName, storeError(err)
	}
	return receiverName, nil
}
