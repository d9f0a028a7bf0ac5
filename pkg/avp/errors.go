// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package avp

import "fmt"

// Kind is the closed protocol error taxonomy. The zero value KindOK marks a
// successful response; every other kind maps one-to-one to a wire code.
type Kind uint8

const (
	KindOK Kind = iota
	KindParseError
	KindInvalidOperation
	KindInvalidParameter
	KindNotAuthenticated
	KindSessionExpired
	KindSecretNotFound
	KindCapacityExceeded
	KindHardwareError
	KindCryptoError
	KindPINInvalid
	KindPINLocked
	KindInternalError
)

var kindCodes = map[Kind]string{
	KindOK:               "OK",
	KindParseError:       "PARSE_ERROR",
	KindInvalidOperation: "INVALID_OPERATION",
	KindInvalidParameter: "INVALID_PARAMETER",
	KindNotAuthenticated: "NOT_AUTHENTICATED",
	KindSessionExpired:   "SESSION_EXPIRED",
	KindSecretNotFound:   "SECRET_NOT_FOUND",
	KindCapacityExceeded: "CAPACITY_EXCEEDED",
	KindHardwareError:    "HARDWARE_ERROR",
	KindCryptoError:      "CRYPTO_ERROR",
	KindPINInvalid:       "PIN_INVALID",
	KindPINLocked:        "PIN_LOCKED",
	KindInternalError:    "INTERNAL_ERROR",
}

// Code returns the wire code for the kind.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}

// Error is a protocol failure: an error kind plus an optional human-readable
// message. When Message is empty the wire code doubles as the message, which
// matches the device firmware's behavior.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Code()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Errf builds an *Error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
