package payload

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// AddressRole names what an address was supposed to be in user-facing errors.
type AddressRole string

const (
	RoleContract    AddressRole = "contract"
	RoleBeneficiary AddressRole = "beneficiary"
	RoleWallet      AddressRole = "wallet"
)

// Error is a validation failure whose Error text is shown to the user as is.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// InvalidAddress builds the error returned for a malformed address.
func InvalidAddress(role AddressRole, addr string) *Error {
	return &Error{
		Message: fmt.Sprintf("❌ Invalid Address\nThe %s address `%s` is not valid. Please check and try again.", role, addr),
		Err:     ErrInvalidAddress,
	}
}

// InvalidAmount builds the error returned for an ETH amount that cannot be scaled to wei.
func InvalidAmount(amount string, cause error) *Error {
	return &Error{
		Message: fmt.Sprintf("❌ Invalid Amount\nThe amount `%s` is not a valid ETH amount. Please use a decimal value such as 0.05.", amount),
		Err:     errors.Join(ErrInvalidAmount, cause),
	}
}
