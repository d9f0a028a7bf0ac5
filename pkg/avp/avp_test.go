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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOp(t *testing.T) {
	tests := []struct {
		wire string
		op   Op
		ok   bool
	}{
		{"DISCOVER", OpDiscover, true},
		{"AUTHENTICATE", OpAuthenticate, true},
		{"STORE", OpStore, true},
		{"RETRIEVE", OpRetrieve, true},
		{"DELETE", OpDelete, true},
		{"LIST", OpList, true},
		{"ROTATE", OpRotate, true},
		{"HW_CHALLENGE", OpHWChallenge, true},
		{"HW_SIGN", OpHWSign, true},
		{"HW_ATTEST", OpHWAttest, true},
		{"discover", OpUnknown, false},
		{"LOGOUT", OpUnknown, false},
		{"", OpUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			op, ok := ParseOp(tt.wire)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.op, op)
		})
	}
}

func TestOpRoundTrip(t *testing.T) {
	for _, op := range []Op{
		OpDiscover, OpAuthenticate, OpStore, OpRetrieve, OpDelete,
		OpList, OpRotate, OpHWChallenge, OpHWSign, OpHWAttest,
	} {
		parsed, ok := ParseOp(op.String())
		require.True(t, ok, "opcode %v", op)
		assert.Equal(t, op, parsed)
	}
	assert.Equal(t, "UNKNOWN", OpUnknown.String())
}

func TestRequiresSession(t *testing.T) {
	exempt := map[Op]bool{OpDiscover: true, OpAuthenticate: true, OpHWChallenge: true}
	for op := OpDiscover; op <= OpHWAttest; op++ {
		assert.Equal(t, !exempt[op], op.RequiresSession(), "op %s", op)
	}
}

func TestKindCodes(t *testing.T) {
	tests := []struct {
		kind Kind
		code string
	}{
		{KindOK, "OK"},
		{KindParseError, "PARSE_ERROR"},
		{KindInvalidOperation, "INVALID_OPERATION"},
		{KindInvalidParameter, "INVALID_PARAMETER"},
		{KindNotAuthenticated, "NOT_AUTHENTICATED"},
		{KindSessionExpired, "SESSION_EXPIRED"},
		{KindSecretNotFound, "SECRET_NOT_FOUND"},
		{KindCapacityExceeded, "CAPACITY_EXCEEDED"},
		{KindHardwareError, "HARDWARE_ERROR"},
		{KindCryptoError, "CRYPTO_ERROR"},
		{KindPINInvalid, "PIN_INVALID"},
		{KindPINLocked, "PIN_LOCKED"},
		{KindInternalError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.kind.Code())
	}
	assert.Equal(t, "UNKNOWN_ERROR", Kind(99).Code())
}

func TestErrorFormatting(t *testing.T) {
	err := Errf(KindSecretNotFound, "no secret named %q", "api-key")
	assert.Equal(t, `SECRET_NOT_FOUND: no secret named "api-key"`, err.Error())

	bare := &Error{Kind: KindPINLocked}
	assert.Equal(t, "PIN_LOCKED", bare.Error())
}

func TestFailureNilError(t *testing.T) {
	resp := Failure(OpStore, nil)
	assert.Equal(t, KindInternalError, resp.Kind)
}
