package rpc

import (
	"errors"

	"github.com/zecrocks/zallet-go/internal/asyncop"
	"github.com/zecrocks/zallet-go/internal/wallet"
)

// kindCodes maps wallet error kinds to response codes.
var kindCodes = map[wallet.Kind]int{
	wallet.InvalidParams:    CodeInvalidParams,
	wallet.InvalidParameter: CodeInvalidParameter,
	wallet.Database:         CodeDatabaseError,
	wallet.WalletRule:       CodeWalletError,
	wallet.Internal:         CodeInternalError,
}

// toRPCError converts an error from the wallet layer into a response error.
// Unclassified errors are internal errors.
func toRPCError(err error) *Error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr
	}
	if errors.Is(err, asyncop.ErrClosed) {
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
	var werr *wallet.Error
	if !errors.As(err, &werr) {
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
	code, ok := kindCodes[werr.Kind]
	if !ok {
		code = CodeInternalError
	}
	return &Error{Code: code, Message: werr.Message()}
}

func invalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: msg}
}

func invalidParameter(msg string) *Error {
	return &Error{Code: CodeInvalidParameter, Message: msg}
}
