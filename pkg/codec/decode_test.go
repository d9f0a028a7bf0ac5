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

package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

func TestDecodeFullRequest(t *testing.T) {
	raw := []byte(`{"op":"AUTHENTICATE","auth_method":"pin","pin":"123456","workspace":"prod","requested_ttl":600}`)
	cmd, derr := Decode(raw)
	require.Nil(t, derr)
	assert.Equal(t, avp.OpAuthenticate, cmd.Op)
	assert.Equal(t, "pin", cmd.AuthMethod)
	assert.Equal(t, "123456", cmd.PIN)
	assert.Equal(t, "prod", cmd.Workspace)
	assert.Equal(t, uint32(600), cmd.TTL)
}

func TestDecodeLeadingWhitespace(t *testing.T) {
	cmd, derr := Decode([]byte("  \t {\"op\":\"DISCOVER\"}"))
	require.Nil(t, derr)
	assert.Equal(t, avp.OpDiscover, cmd.Op)
}

func TestDecodeUnknownFieldsIgnored(t *testing.T) {
	cmd, derr := Decode([]byte(`{"op":"LIST","session_id":"abc","future_field":{"nested":true},"x":1}`))
	require.Nil(t, derr)
	assert.Equal(t, avp.OpList, cmd.Op)
	assert.Equal(t, "abc", cmd.SessionID)
}

func TestDecodeRequestedTTLPrecedence(t *testing.T) {
	cmd, derr := Decode([]byte(`{"op":"AUTHENTICATE","ttl":100,"requested_ttl":200}`))
	require.Nil(t, derr)
	assert.Equal(t, uint32(200), cmd.TTL)

	cmd, derr = Decode([]byte(`{"op":"AUTHENTICATE","ttl":100}`))
	require.Nil(t, derr)
	assert.Equal(t, uint32(100), cmd.TTL)
}

func TestDecodeDataHex(t *testing.T) {
	cmd, derr := Decode([]byte(`{"op":"HW_SIGN","key_name":"k1","data":"deadbeef"}`))
	require.Nil(t, derr)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, cmd.Data)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind avp.Kind
	}{
		{"empty input", ``, avp.KindParseError},
		{"not json", `hello`, avp.KindParseError},
		{"missing op", `{"name":"k"}`, avp.KindParseError},
		{"non-string op", `{"op":42}`, avp.KindParseError},
		{"unknown op", `{"op":"SELF_DESTRUCT"}`, avp.KindInvalidOperation},
		{"non-string name", `{"op":"STORE","name":42}`, avp.KindInvalidParameter},
		{"oversize name", `{"op":"STORE","name":"` + strings.Repeat("n", 64) + `"}`, avp.KindInvalidParameter},
		{"control chars in name", "{\"op\":\"STORE\",\"name\":\"a\\u0000b\"}", avp.KindInvalidParameter},
		{"oversize value", `{"op":"STORE","name":"k","value":"` + strings.Repeat("v", 512) + `"}`, avp.KindInvalidParameter},
		{"oversize session id", `{"op":"LIST","session_id":"` + strings.Repeat("a", 33) + `"}`, avp.KindInvalidParameter},
		{"oversize pin", `{"op":"AUTHENTICATE","pin":"12345678901234567"}`, avp.KindInvalidParameter},
		{"negative ttl", `{"op":"AUTHENTICATE","requested_ttl":-1}`, avp.KindInvalidParameter},
		{"float ttl", `{"op":"AUTHENTICATE","requested_ttl":1.5}`, avp.KindInvalidParameter},
		{"string ttl", `{"op":"AUTHENTICATE","requested_ttl":"300"}`, avp.KindInvalidParameter},
		{"odd hex", `{"op":"HW_SIGN","data":"abc"}`, avp.KindInvalidParameter},
		{"bad hex", `{"op":"HW_SIGN","data":"zz"}`, avp.KindInvalidParameter},
		{"oversize data", `{"op":"HW_SIGN","data":"` + strings.Repeat("ab", 257) + `"}`, avp.KindInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, derr := Decode([]byte(tt.raw))
			require.NotNil(t, derr)
			assert.Equal(t, tt.kind, derr.Kind, "message: %s", derr.Message)
		})
	}
}

func TestDecodeOversizeInput(t *testing.T) {
	raw := []byte(`{"op":"STORE","name":"k","pad":"` + strings.Repeat("x", avp.MaxJSONLen) + `"}`)
	_, derr := Decode(raw)
	require.NotNil(t, derr)
	assert.Equal(t, avp.KindParseError, derr.Kind)
}

func TestDecodeMaxLenBoundaries(t *testing.T) {
	// Exactly at the limits should pass.
	name := strings.Repeat("n", avp.MaxNameLen)
	cmd, derr := Decode([]byte(`{"op":"STORE","name":"` + name + `"}`))
	require.Nil(t, derr)
	assert.Equal(t, name, cmd.Name)

	data := strings.Repeat("ab", avp.MaxDataLen)
	cmd, derr = Decode([]byte(`{"op":"HW_SIGN","data":"` + data + `"}`))
	require.Nil(t, derr)
	assert.Len(t, cmd.Data, avp.MaxDataLen)
}
