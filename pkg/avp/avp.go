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

// Package avp defines the wire-level types and constants of the Agent Vault
// Protocol (AVP): the opcode set, the decoded command, the tagged response
// variant, the error taxonomy and the device limits shared by every other
// package in this module.
package avp

// Protocol identity, reported by DISCOVER.
const (
	Version      = "0.1.0"
	BackendType  = "hardware"
	Manufacturer = "AVP Protocol"
	Model        = "NexusClaw"
)

// Device limits. These mirror the secure element's fixed geometry and are
// compile-time constants rather than configuration.
const (
	// MaxSecrets is the number of metadata entries and data slots available.
	MaxSecrets = 32

	// MaxSecretSize is the capacity in bytes of a single data slot.
	MaxSecretSize = 256

	// MaxNameLen bounds secret, workspace and key names.
	MaxNameLen = 63

	// MaxValueLen bounds the opaque value field on the wire.
	MaxValueLen = 511

	// MaxJSONLen bounds a single request or response line.
	MaxJSONLen = 1024

	// MaxPINLen bounds the PIN field; shorter than MinPINLen is rejected by
	// PIN verification, not by the decoder.
	MaxPINLen = 16

	// MinPINLen is the shortest PIN the secure element accepts.
	MinPINLen = 4

	// MaxDataLen bounds the decoded length of the hex data field.
	MaxDataLen = 256

	// SessionIDLen is the rendered session identifier length in hex chars.
	SessionIDLen = 32

	// Session TTL bounds in seconds. Requested TTLs are clamped into
	// [MinTTL, MaxTTL]; an absent TTL defaults to DefaultTTL.
	DefaultTTL = 300
	MinTTL     = 60
	MaxTTL     = 3600

	// MaxPINAttempts is the lockout threshold. Once reached, every
	// AUTHENTICATE fails with PIN_LOCKED until the device is reset.
	MaxPINAttempts = 5
)

// Secure element slot geometry. Key slots hold ECC keys; data slots hold
// secret bytes. The engine never addresses a slot outside these ranges.
const (
	KeySlotFirst  = 0
	KeySlotLast   = 31
	DataSlotFirst = 96
	DataSlotLast  = 127
)

// Op identifies an AVP operation. The set is closed; the decoder maps any
// other opcode string to InvalidOperation.
type Op uint8

const (
	OpUnknown Op = iota
	OpDiscover
	OpAuthenticate
	OpStore
	OpRetrieve
	OpDelete
	OpList
	OpRotate
	OpHWChallenge
	OpHWSign
	OpHWAttest
)

var opNames = map[Op]string{
	OpDiscover:     "DISCOVER",
	OpAuthenticate: "AUTHENTICATE",
	OpStore:        "STORE",
	OpRetrieve:     "RETRIEVE",
	OpDelete:       "DELETE",
	OpList:         "LIST",
	OpRotate:       "ROTATE",
	OpHWChallenge:  "HW_CHALLENGE",
	OpHWSign:       "HW_SIGN",
	OpHWAttest:     "HW_ATTEST",
}

// String returns the wire form of the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseOp maps a wire opcode string to an Op. The second return value is
// false when the opcode is not in the protocol's closed set.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return OpUnknown, false
}

// RequiresSession reports whether an operation may only execute against a
// live session. DISCOVER, AUTHENTICATE and HW_CHALLENGE are the only exempt
// operations.
func (o Op) RequiresSession() bool {
	switch o {
	case OpDiscover, OpAuthenticate, OpHWChallenge:
		return false
	default:
		return true
	}
}

// Command is one decoded request. Only the fields relevant to the opcode are
// populated; the decoder leaves the rest at their zero values.
type Command struct {
	Op         Op
	SessionID  string
	Workspace  string
	Name       string
	Value      string
	AuthMethod string
	PIN        string
	TTL        uint32 // 0 means "not requested"; the session manager applies DefaultTTL
	KeyName    string
	Data       []byte
}

// Payload is the operation-specific body of a successful response. The
// concrete type is keyed by opcode so the encoder is total: every payload
// type has exactly one wire shape.
type Payload interface {
	payload()
}

// DiscoverPayload is the DISCOVER success body.
type DiscoverPayload struct {
	Version       string
	BackendType   string
	Manufacturer  string
	Model         string
	Serial        string
	HWSign        bool
	HWAttest      bool
	MaxSecrets    uint32
	MaxSecretSize uint32
}

// AuthPayload is the AUTHENTICATE success body.
type AuthPayload struct {
	SessionID string
	ExpiresIn uint32
	Workspace string
}

// ValuePayload is the RETRIEVE success body.
type ValuePayload struct {
	Value string
}

// SecretsPayload is the LIST success body. Names preserve insertion order.
type SecretsPayload struct {
	Names []string
}

// ChallengePayload is the HW_CHALLENGE success body.
type ChallengePayload struct {
	Verified bool
	Model    string
	Serial   string
}

// SignaturePayload is the HW_SIGN success body; the signature is lowercase hex.
type SignaturePayload struct {
	Signature string
}

// AttestationPayload is the HW_ATTEST success body.
type AttestationPayload struct {
	Attestation string
}

func (*DiscoverPayload) payload()    {}
func (*AuthPayload) payload()        {}
func (*ValuePayload) payload()       {}
func (*SecretsPayload) payload()     {}
func (*ChallengePayload) payload()   {}
func (*SignaturePayload) payload()   {}
func (*AttestationPayload) payload() {}

// Response is the tagged result of one operation. A success carries an
// opcode-specific payload (nil for operations with an empty body, such as
// STORE); a failure carries an error kind and message.
type Response struct {
	Op      Op
	Kind    Kind // KindOK on success
	Message string
	Payload Payload
}

// Success builds a successful response for op. payload may be nil.
func Success(op Op, payload Payload) *Response {
	return &Response{Op: op, Kind: KindOK, Payload: payload}
}

// Failure builds a failure response for op from err. A nil err is an
// internal invariant violation and collapses to INTERNAL_ERROR.
func Failure(op Op, err *Error) *Response {
	if err == nil {
		err = &Error{Kind: KindInternalError}
	}
	return &Response{Op: op, Kind: err.Kind, Message: err.Message}
}
