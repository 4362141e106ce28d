// Package domain defines typed identifiers shared across modules. The types
// are distinct at compile time so a BookingID can never be passed where a
// WalletID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "vendora/pkg/domain-errors"
)

type (
	// UserID identifies a customer, staff member, or merchant principal.
	UserID uuid.UUID
	// MerchantID identifies a merchant account.
	MerchantID uuid.UUID
	// VenueID identifies a physical venue (restaurant, lot, event space).
	VenueID uuid.UUID
	// BookingID identifies a dine-in booking.
	BookingID uuid.UUID
	// OrderID identifies a pre-order.
	OrderID uuid.UUID
	// WalletID identifies a wallet.
	WalletID uuid.UUID
)

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID validates and converts a raw string into a UserID.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	return UserID(parsed), err
}

// ParseMerchantID validates and converts a raw string into a MerchantID.
func ParseMerchantID(raw string) (MerchantID, error) {
	parsed, err := parseUUID(raw)
	return MerchantID(parsed), err
}

// ParseVenueID validates and converts a raw string into a VenueID.
func ParseVenueID(raw string) (VenueID, error) {
	parsed, err := parseUUID(raw)
	return VenueID(parsed), err
}

// ParseBookingID validates and converts a raw string into a BookingID.
func ParseBookingID(raw string) (BookingID, error) {
	parsed, err := parseUUID(raw)
	return BookingID(parsed), err
}

// ParseOrderID validates and converts a raw string into an OrderID.
func ParseOrderID(raw string) (OrderID, error) {
	parsed, err := parseUUID(raw)
	return OrderID(parsed), err
}

// ParseWalletID validates and converts a raw string into a WalletID.
func ParseWalletID(raw string) (WalletID, error) {
	parsed, err := parseUUID(raw)
	return WalletID(parsed), err
}

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id MerchantID) String() string { return uuid.UUID(id).String() }
func (id VenueID) String() string    { return uuid.UUID(id).String() }
func (id BookingID) String() string  { return uuid.UUID(id).String() }
func (id OrderID) String() string    { return uuid.UUID(id).String() }
func (id WalletID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id MerchantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id VenueID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BookingID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id OrderID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id WalletID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as canonical UUID strings in JSON and text.

func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id MerchantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id VenueID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id BookingID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id OrderID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id WalletID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = UserID(parsed)
	return err
}

func (id *MerchantID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = MerchantID(parsed)
	return err
}

func (id *VenueID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = VenueID(parsed)
	return err
}

func (id *BookingID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = BookingID(parsed)
	return err
}

func (id *OrderID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = OrderID(parsed)
	return err
}

func (id *WalletID) UnmarshalText(b []byte) error {
	parsed, err := parseUUID(string(b))
	*id = WalletID(parsed)
	return err
}

// NewUserID generates a fresh UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewBookingID generates a fresh BookingID.
func NewBookingID() BookingID { return BookingID(uuid.New()) }

// NewOrderID generates a fresh OrderID.
func NewOrderID() OrderID { return OrderID(uuid.New()) }

// NewWalletID generates a fresh WalletID.
func NewWalletID() WalletID { return WalletID(uuid.New()) }

// NewVenueID generates a fresh VenueID.
func NewVenueID() VenueID { return VenueID(uuid.New()) }

// NewMerchantID generates a fresh MerchantID.
func NewMerchantID() MerchantID { return MerchantID(uuid.New()) }
