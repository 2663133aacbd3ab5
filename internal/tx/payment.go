package tx

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"cusdScope/internal/casper"
	"cusdScope/internal/fixedpoint"
)

var callbackName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$.]*$`)

// PaymentRequest mirrors the data-cusd-* attributes of a pay button.
type PaymentRequest struct {
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	Memo        string `json:"memo,omitempty"`
	Description string `json:"description,omitempty"`
	Theme       string `json:"theme,omitempty"`
	OnSuccess   string `json:"onSuccess,omitempty"`
	OnError     string `json:"onError,omitempty"`
}

// PreparedPayment is the validated request with the transfer call ready
// for signing.
type PreparedPayment struct {
	Amount      string `json:"amount"`
	AmountMinor string `json:"amountMinor"`
	Recipient   string `json:"recipient"`
	Memo        string `json:"memo,omitempty"`
	Theme       string `json:"theme"`
	OnSuccess   string `json:"onSuccess,omitempty"`
	OnError     string `json:"onError,omitempty"`
	Call        Call   `json:"call"`
}

// ErrorPayload is the detail of a cusd:error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// PreparePayment validates req and builds the cUSD transfer.
func (b *Builder) PreparePayment(req PaymentRequest) (PreparedPayment, error) {
	if strings.TrimSpace(req.Amount) == "" || strings.TrimSpace(req.Recipient) == "" {
		return PreparedPayment{}, fmt.Errorf("%w: amount and recipient are required", ErrInvalidArgument)
	}
	amount, err := fixedpoint.ToMinorUnits(strings.TrimSpace(req.Amount), fixedpoint.StablecoinDecimals)
	if err != nil {
		return PreparedPayment{}, fmt.Errorf("%w: amount: %v", ErrInvalidArgument, err)
	}
	if amount.Sign() <= 0 {
		return PreparedPayment{}, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	recipient, err := casper.NormalizeAccount(req.Recipient)
	if err != nil {
		return PreparedPayment{}, fmt.Errorf("%w: recipient: %v", ErrInvalidArgument, err)
	}

	theme := strings.ToLower(req.Theme)
	switch theme {
	case "":
		theme = "light"
	case "light", "dark":
	default:
		return PreparedPayment{}, fmt.Errorf("%w: theme %q", ErrInvalidArgument, req.Theme)
	}
	for _, cb := range []string{req.OnSuccess, req.OnError} {
		if cb != "" && !callbackName.MatchString(cb) {
			return PreparedPayment{}, fmt.Errorf("%w: callback %q", ErrInvalidArgument, cb)
		}
	}

	memo := req.Memo
	if memo == "" {
		memo = req.Description
	}
	call, err := b.Transfer(recipient, amount)
	if err != nil {
		return PreparedPayment{}, err
	}
	return PreparedPayment{
		Amount:      fixedpoint.ToDecimalString(amount, fixedpoint.StablecoinDecimals),
		AmountMinor: amount.String(),
		Recipient:   recipient,
		Memo:        memo,
		Theme:       theme,
		OnSuccess:   req.OnSuccess,
		OnError:     req.OnError,
		Call:        call,
	}, nil
}

// ParseAmount parses a human amount at scale into positive minor units.
func ParseAmount(s string, scale uint) (*big.Int, error) {
	v, err := fixedpoint.ToMinorUnits(strings.TrimSpace(s), scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := positive(v); err != nil {
		return nil, err
	}
	return v, nil
}
