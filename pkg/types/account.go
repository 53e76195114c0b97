package types

import (
	"github.com/google/uuid"
)

// AccountID is the opaque, globally unique identifier of a wallet account.
// It is assigned once at account creation and never reused.
type AccountID uuid.UUID

// NewAccountID returns a fresh random account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// ParseAccountID parses the canonical UUID text form of an account identifier.
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// String returns the canonical UUID text form.
func (id AccountID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns a copy of the raw 16 identifier bytes.
func (id AccountID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

// MarshalText implements encoding.TextMarshaler.
func (id AccountID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *AccountID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}
