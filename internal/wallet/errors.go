package wallet

import (
	"errors"
	"strings"
)

// Kind classifies an error for the RPC boundary.
type Kind int

// Error kinds. Each maps to one legacy JSON-RPC error code.
const (
	Other            Kind = iota // Unclassified; reported as an internal error
	InvalidParams                // Malformed request shape or type
	InvalidParameter             // Value outside its allowed domain
	Database                     // Store failure, message passed through
	WalletRule                   // Wallet rule violation
	Internal                     // Invariant breach or detected race
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "unclassified error"
	case InvalidParams:
		return "invalid params"
	case InvalidParameter:
		return "invalid parameter"
	case Database:
		return "database error"
	case WalletRule:
		return "wallet error"
	case Internal:
		return "internal error"
	default:
		return "unknown error kind"
	}
}

// Op names the operation that failed, for logs.
type Op string

// Error is a classified wallet error.
type Error struct {
	Op   Op
	Kind Kind
	Msg  string // caller-facing message; empty means use Err
	Err  error
}

// E builds an *Error from its arguments: an Op, a Kind, a string message and
// an underlying error, in any order. A nested *Error donates its kind when
// none is given.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("wallet.E: no args")
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case string:
			e.Msg = arg
		case error:
			e.Err = arg
		}
	}
	var inner *Error
	if e.Kind == Other && errors.As(e.Err, &inner) {
		e.Kind = inner.Kind
	}
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	b.WriteString(e.Message())
	if e.Msg != "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the text reported to RPC callers.
func (e *Error) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	var inner *Error
	if errors.As(e.Err, &inner) {
		return inner.Message()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// KindOf returns the kind of the outermost *Error in err's chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err is a wallet error of the given kind.
func Is(kind Kind, err error) bool {
	return err != nil && KindOf(err) == kind
}

// dbErr wraps an error returned from a store transaction. Errors already
// classified inside the transaction keep their kind; the rest are Database.
func dbErr(op Op, err error) error {
	if KindOf(err) != Other {
		return E(op, err)
	}
	return E(op, Database, err)
}
