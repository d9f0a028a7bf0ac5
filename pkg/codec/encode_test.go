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

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

func TestEncodeDiscover(t *testing.T) {
	resp := avp.Success(avp.OpDiscover, &avp.DiscoverPayload{
		Version:       "0.1.0",
		BackendType:   "hardware",
		Manufacturer:  "AVP Protocol",
		Model:         "NexusClaw",
		Serial:        "NC00000001",
		HWSign:        true,
		HWAttest:      true,
		MaxSecrets:    32,
		MaxSecretSize: 256,
	})
	want := `{"ok":true,"version":"0.1.0","backend_type":"hardware",` +
		`"manufacturer":"AVP Protocol","model":"NexusClaw","serial":"NC00000001",` +
		`"capabilities":{"hw_sign":true,"hw_attest":true,"max_secrets":32,"max_secret_size":256}}`
	assert.Equal(t, want, string(Encode(resp)))
}

func TestEncodeAuth(t *testing.T) {
	resp := avp.Success(avp.OpAuthenticate, &avp.AuthPayload{
		SessionID: "00112233445566778899aabbccddeeff",
		ExpiresIn: 300,
		Workspace: "default",
	})
	want := `{"ok":true,"session_id":"00112233445566778899aabbccddeeff","expires_in":300,"workspace":"default"}`
	assert.Equal(t, want, string(Encode(resp)))
}

func TestEncodeEmptySuccess(t *testing.T) {
	assert.Equal(t, `{"ok":true}`, string(Encode(avp.Success(avp.OpStore, nil))))
}

func TestEncodeValue(t *testing.T) {
	resp := avp.Success(avp.OpRetrieve, &avp.ValuePayload{Value: "sk-ant-abc"})
	assert.Equal(t, `{"ok":true,"value":"sk-ant-abc"}`, string(Encode(resp)))
}

func TestEncodeSecrets(t *testing.T) {
	resp := avp.Success(avp.OpList, &avp.SecretsPayload{Names: []string{"a", "b"}})
	assert.Equal(t, `{"ok":true,"secrets":["a","b"]}`, string(Encode(resp)))

	// An empty list must render as an empty array, never null.
	resp = avp.Success(avp.OpList, &avp.SecretsPayload{})
	assert.Equal(t, `{"ok":true,"secrets":[]}`, string(Encode(resp)))
}

func TestEncodeChallenge(t *testing.T) {
	resp := avp.Success(avp.OpHWChallenge, &avp.ChallengePayload{
		Verified: true, Model: "TROPIC01", Serial: "NC00000001",
	})
	assert.Equal(t, `{"ok":true,"verified":true,"model":"TROPIC01","serial":"NC00000001"}`, string(Encode(resp)))
}

func TestEncodeSignature(t *testing.T) {
	resp := avp.Success(avp.OpHWSign, &avp.SignaturePayload{Signature: "abcd"})
	assert.Equal(t, `{"ok":true,"signature":"abcd"}`, string(Encode(resp)))
}

func TestEncodeFailure(t *testing.T) {
	resp := avp.Failure(avp.OpStore, avp.Errf(avp.KindNotAuthenticated, "no active session"))
	assert.Equal(t, `{"ok":false,"error":"NOT_AUTHENTICATED","message":"no active session"}`, string(Encode(resp)))
}

func TestEncodeFailureDefaultMessage(t *testing.T) {
	resp := avp.Failure(avp.OpStore, &avp.Error{Kind: avp.KindPINLocked})
	assert.Equal(t, `{"ok":false,"error":"PIN_LOCKED","message":"PIN_LOCKED"}`, string(Encode(resp)))
}

func TestEncodeEscaping(t *testing.T) {
	resp := avp.Success(avp.OpRetrieve, &avp.ValuePayload{Value: `quote " and \ slash`})
	assert.Equal(t, `{"ok":true,"value":"quote \" and \\ slash"}`, string(Encode(resp)))
}

func TestEncodeOverflowCollapses(t *testing.T) {
	// 32 maximum-length names cannot fit in one response line; the encoder
	// must substitute the canonical failure rather than truncate.
	names := make([]string, avp.MaxSecrets)
	for i := range names {
		names[i] = strings.Repeat("x", avp.MaxNameLen)
	}
	resp := avp.Success(avp.OpList, &avp.SecretsPayload{Names: names})
	assert.Equal(t,
		`{"ok":false,"error":"INTERNAL_ERROR","message":"INTERNAL_ERROR"}`,
		string(Encode(resp)))
}

func TestEncodeNilResponse(t *testing.T) {
	assert.Equal(t,
		`{"ok":false,"error":"INTERNAL_ERROR","message":"INTERNAL_ERROR"}`,
		string(Encode(nil)))
}
