package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TokenProgramID is the SPL Token program.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGMPTLoV5kYUuzLsNv7tX"

// AccountLayout names the instruction account slots read by the validator.
type AccountLayout struct {
	Source      int `yaml:"source"`
	Destination int `yaml:"destination"`
	Mint        int `yaml:"mint"`
}

var DefaultAccountLayout = AccountLayout{Source: 0, Destination: 1, Mint: 2}

// DefaultCheckedLayout is the SPL TransferChecked order:
// source, mint, destination, authority.
var DefaultCheckedLayout = AccountLayout{Source: 0, Destination: 2, Mint: 1}

// MinAccounts is the number of account references a transfer needs.
func (l AccountLayout) MinAccounts() int {
	n := 3
	for _, slot := range []int{l.Source, l.Destination, l.Mint} {
		if slot+1 > n {
			n = slot + 1
		}
	}
	return n
}

// PaymentConfig is what a purchase must pay and to whom.
type PaymentConfig struct {
	TokenMint    string
	Recipient    string
	TokenProgram string
	Decimals     uint8
	Price        decimal.Decimal
	Layout       AccountLayout

	// CheckedLayout applies to TransferChecked; zero means DefaultCheckedLayout.
	CheckedLayout AccountLayout

	// SignerErr is set when the recipient signing key is missing or unusable.
	SignerErr error
}

// LayoutFor returns the slots to read for a Transfer (checked=false) or a
// TransferChecked instruction.
func (p PaymentConfig) LayoutFor(checked bool) AccountLayout {
	if !checked {
		return p.Layout
	}
	if p.CheckedLayout == (AccountLayout{}) {
		return DefaultCheckedLayout
	}
	return p.CheckedLayout
}

func (p PaymentConfig) Ready() error {
	if p.SignerErr != nil {
		return fmt.Errorf("%w: %v", ErrNotConfigured, p.SignerErr)
	}
	if p.TokenMint == "" || p.Recipient == "" {
		return fmt.Errorf("%w: token mint and recipient are required", ErrNotConfigured)
	}
	return nil
}
