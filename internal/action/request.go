package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epaisa/epaisa_sms/internal/wallet"
)

// Wire tags. The legacy tags are still sent by older handset builds.
const (
	TagRegister      = "register"
	TagLoadFunds     = "loadFunds"
	TagTransferFunds = "transferFunds"

	legacyTagLoad     = "loadMoney"
	legacyTagTransfer = "sendMoney"
)

// Action is the decoded inbound request. The set of implementations is closed:
// Register, LoadFunds, TransferFunds and Unknown.
type Action interface {
	// Name is the canonical action tag.
	Name() string
	// RequestID is the caller-supplied correlation token.
	RequestID() string
	sealed()
}

// Register asks for a new wallet owner.
type Register struct{ wallet.RegisterInput }

// LoadFunds asks to credit a wallet.
type LoadFunds struct{ wallet.LoadInput }

// TransferFunds asks to move money between two wallets.
type TransferFunds struct{ wallet.TransferInput }

// Unknown carries an unrecognised tag.
type Unknown struct {
	Tag string
	ID  string
}

func (Register) Name() string      { return TagRegister }
func (LoadFunds) Name() string     { return TagLoadFunds }
func (TransferFunds) Name() string { return TagTransferFunds }
func (u Unknown) Name() string     { return u.Tag }

func (a Register) RequestID() string      { return a.RegisterInput.RequestID }
func (a LoadFunds) RequestID() string     { return a.LoadInput.RequestID }
func (a TransferFunds) RequestID() string { return a.TransferInput.RequestID }
func (u Unknown) RequestID() string       { return u.ID }

func (Register) sealed()      {}
func (LoadFunds) sealed()     {}
func (TransferFunds) sealed() {}
func (Unknown) sealed()       {}

// text accepts a JSON string or number. Handsets send phone numbers and PINs
// either way.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*t = text(n.String())
	return nil
}

type envelope struct {
	Action    string              `json:"action"`
	RequestID text                `json:"requestId"`
	MobileNo  text                `json:"mobileNo"`
	FirstName string              `json:"firstName"`
	PIN       text                `json:"pin"`
	To        text                `json:"to"`
	From      text                `json:"from"`
	Amount    decimal.NullDecimal `json:"amount"`
	Desc      string              `json:"desc"`
}

// Parse decodes a decrypted request body into an Action.
func Parse(body []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch env.Action {
	case TagRegister:
		return Register{wallet.RegisterInput{
			Phone:     string(env.MobileNo),
			FirstName: env.FirstName,
			PIN:       string(env.PIN),
			RequestID: string(env.RequestID),
		}}, nil
	case TagLoadFunds, legacyTagLoad:
		return LoadFunds{wallet.LoadInput{
			To:          string(env.To),
			Amount:      env.Amount,
			Description: env.Desc,
			RequestID:   string(env.RequestID),
		}}, nil
	case TagTransferFunds, legacyTagTransfer:
		return TransferFunds{wallet.TransferInput{
			From:        string(env.From),
			To:          string(env.To),
			Amount:      env.Amount,
			PIN:         string(env.PIN),
			Description: env.Desc,
			RequestID:   string(env.RequestID),
		}}, nil
	default:
		return Unknown{Tag: env.Action, ID: string(env.RequestID)}, nil
	}
}
