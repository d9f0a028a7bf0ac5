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

package memory

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-avp/pkg/backend"
)

func TestRandomDeterministic(t *testing.T) {
	a := New(WithSeed(99))
	b := New(WithSeed(99))

	ra, err := a.Random(16)
	require.NoError(t, err)
	rb, err := b.Random(16)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)

	// A second draw from the same element must differ from the first.
	ra2, err := a.Random(16)
	require.NoError(t, err)
	assert.NotEqual(t, ra, ra2)
}

func TestClock(t *testing.T) {
	se := New(WithClock(5000))
	assert.Equal(t, uint32(5000), se.Now())
	se.Advance(61)
	assert.Equal(t, uint32(5061), se.Now())
}

func TestSlotLifecycle(t *testing.T) {
	se := New()

	require.NoError(t, se.SlotWrite(96, []byte("payload")))
	data, err := se.SlotRead(96)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, se.SlotErase(96))
	data, err = se.SlotRead(96)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSlotDefensiveCopies(t *testing.T) {
	se := New()
	buf := []byte("original")
	require.NoError(t, se.SlotWrite(100, buf))
	buf[0] = 'X'

	data, err := se.SlotRead(100)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), data)

	data[0] = 'Y'
	again, err := se.SlotRead(100)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestSlotBounds(t *testing.T) {
	se := New()
	assert.ErrorIs(t, se.SlotWrite(128, []byte("x")), backend.ErrSlotOutOfRange)
	_, err := se.SlotRead(200)
	assert.ErrorIs(t, err, backend.ErrSlotOutOfRange)
	assert.ErrorIs(t, se.SlotErase(255), backend.ErrSlotOutOfRange)
}

func TestSlotCapacity(t *testing.T) {
	se := New()
	assert.NoError(t, se.SlotWrite(96, make([]byte, slotCapacity)))
	assert.ErrorIs(t, se.SlotWrite(96, make([]byte, slotCapacity+1)), backend.ErrSlotTooLarge)
}

func TestFaultInjection(t *testing.T) {
	se := New()
	require.NoError(t, se.SlotWrite(96, []byte("v")))

	se.FailWrites(true)
	assert.ErrorIs(t, se.SlotWrite(97, []byte("v")), backend.ErrSlotIO)
	se.FailWrites(false)

	se.FailReads(true)
	_, err := se.SlotRead(96)
	assert.ErrorIs(t, err, backend.ErrSlotIO)
	se.FailReads(false)

	se.FailErases(true)
	assert.ErrorIs(t, se.SlotErase(96), backend.ErrSlotIO)
	se.FailErases(false)
	assert.NoError(t, se.SlotErase(96))
}

func TestPinVerify(t *testing.T) {
	se := New(WithPIN("4711"))

	tests := []struct {
		name string
		pin  string
		want backend.PinResult
	}{
		{"match", "4711", backend.PinOK},
		{"mismatch", "0000", backend.PinInvalid},
		{"too short", "1", backend.PinInvalid},
		{"too long", "12345678901234567", backend.PinInvalid},
		{"non-digit", "47a1", backend.PinInvalid},
		{"empty", "", backend.PinInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := se.PinVerify(tt.pin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestPinHardLock(t *testing.T) {
	se := New(WithPIN("4711"))
	se.HardLock(true)
	result, err := se.PinVerify("4711")
	require.NoError(t, err)
	assert.Equal(t, backend.PinLocked, result)
}

func TestSignVerifies(t *testing.T) {
	se := New(WithSeed(3))
	data := []byte("message to sign")

	sig, err := se.Sign(5, data)
	require.NoError(t, err)

	pub, err := se.PublicKey(5)
	require.NoError(t, err)
	digest := sha256.Sum256(data)
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], sig))

	// A different key slot produces a different key pair.
	otherPub, err := se.PublicKey(6)
	require.NoError(t, err)
	assert.False(t, otherPub.Equal(pub))
}

func TestAttestVerifies(t *testing.T) {
	se := New(WithSeed(3))
	challenge := []byte("nonce-from-engine")

	sig, err := se.Attest(challenge)
	require.NoError(t, err)

	pub, err := se.AttestationKey()
	require.NoError(t, err)
	digest := sha256.Sum256(challenge)
	assert.True(t, ecdsa.VerifyASN1(pub, digest[:], sig))
}

func TestDeviceInfo(t *testing.T) {
	se := New()
	info := se.DeviceInfo()
	assert.Equal(t, DefaultModel, info.Model)
	assert.Equal(t, DefaultSerial, info.Serial)
	assert.Equal(t, DefaultFirmware, info.Firmware)

	custom := New(WithDeviceInfo(backend.DeviceInfo{Model: "TROPIC01", Serial: "NC42", Firmware: "2.0"}))
	assert.Equal(t, "NC42", custom.DeviceInfo().Serial)
}
