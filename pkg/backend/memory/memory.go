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

// Package memory provides an in-memory secure element for tests and the
// simulator. Slots live in a map, randomness comes from a deterministic
// seeded PRNG, and the clock is virtual: it only advances on explicit calls.
// Signing keys are ECDSA P-256, derived lazily per key slot from the PRNG so
// a given seed always yields the same device identity.
package memory

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"math/rand"
	"sync"

	"github.com/jeremyhahn/go-avp/pkg/backend"
)

const (
	// slotCount is the element's addressable slot range.
	slotCount = 128

	// slotCapacity is the byte capacity of a single data slot.
	slotCapacity = 256
)

// Default identity and credential, overridable through options.
const (
	DefaultPIN      = "123456"
	DefaultModel    = "TROPIC01"
	DefaultSerial   = "NC00000001"
	DefaultFirmware = "1.0.0"
)

// Backend is an in-memory backend.SecureElement. All methods are safe for
// concurrent use, although the engine serializes access anyway.
type Backend struct {
	mu    sync.Mutex
	slots map[uint8][]byte
	prng  *rand.Rand
	clock uint32
	pin   string
	info  backend.DeviceInfo

	keys      map[uint8]*ecdsa.PrivateKey
	attestKey *ecdsa.PrivateKey

	hardLocked bool
	failWrites bool
	failReads  bool
	failErases bool
}

// Option configures a Backend at construction time.
type Option func(*Backend)

// WithSeed seeds the deterministic PRNG. The same seed reproduces the same
// session identifiers, signatures and attestation keys.
func WithSeed(seed int64) Option {
	return func(b *Backend) { b.prng = rand.New(rand.NewSource(seed)) }
}

// WithPIN sets the PIN the element accepts.
func WithPIN(pin string) Option {
	return func(b *Backend) { b.pin = pin }
}

// WithDeviceInfo overrides the element identity.
func WithDeviceInfo(info backend.DeviceInfo) Option {
	return func(b *Backend) { b.info = info }
}

// WithClock sets the virtual clock's starting value in seconds.
func WithClock(start uint32) Option {
	return func(b *Backend) { b.clock = start }
}

// New creates an in-memory secure element with deterministic defaults.
func New(opts ...Option) *Backend {
	b := &Backend{
		slots: make(map[uint8][]byte),
		prng:  rand.New(rand.NewSource(1)),
		clock: 1000,
		pin:   DefaultPIN,
		info: backend.DeviceInfo{
			Model:    DefaultModel,
			Serial:   DefaultSerial,
			Firmware: DefaultFirmware,
		},
		keys: make(map[uint8]*ecdsa.PrivateKey),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now returns the virtual clock.
func (b *Backend) Now() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

// Advance moves the virtual clock forward by secs.
func (b *Backend) Advance(secs uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock += secs
}

// Random returns n bytes from the seeded PRNG.
func (b *Backend) Random(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := make([]byte, n)
	if _, err := b.prng.Read(buf); err != nil {
		return nil, backend.ErrRNG
	}
	return buf, nil
}

// SlotWrite stores a defensive copy of data in the slot.
func (b *Backend) SlotWrite(slot uint8, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrites {
		return backend.ErrSlotIO
	}
	if int(slot) >= slotCount {
		return backend.ErrSlotOutOfRange
	}
	if len(data) > slotCapacity {
		return backend.ErrSlotTooLarge
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	b.slots[slot] = stored
	return nil
}

// SlotRead returns a defensive copy of the slot contents. Reading a slot
// that was never written returns an empty payload, matching the erased
// state of real silicon.
func (b *Backend) SlotRead(slot uint8) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failReads {
		return nil, backend.ErrSlotIO
	}
	if int(slot) >= slotCount {
		return nil, backend.ErrSlotOutOfRange
	}
	stored := b.slots[slot]
	out := make([]byte, len(stored))
	copy(out, stored)
	return out, nil
}

// SlotErase removes the slot contents.
func (b *Backend) SlotErase(slot uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErases {
		return backend.ErrSlotIO
	}
	if int(slot) >= slotCount {
		return backend.ErrSlotOutOfRange
	}
	delete(b.slots, slot)
	return nil
}

// PinVerify compares the PIN against the configured credential. A PIN that
// is not 4..16 ASCII digits never matches.
func (b *Backend) PinVerify(pin string) (backend.PinResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hardLocked {
		return backend.PinLocked, nil
	}
	if !pinWellFormed(pin) || pin != b.pin {
		return backend.PinInvalid, nil
	}
	return backend.PinOK, nil
}

// Sign hashes data with SHA-256 and signs the digest with the key slot's
// ECDSA P-256 key, generating the key on first use.
func (b *Backend) Sign(keySlot uint8, data []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key, err := b.keyForSlot(keySlot)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	sig, err := ecdsa.SignASN1(b.prng, key, digest[:])
	if err != nil {
		return nil, backend.ErrSign
	}
	return sig, nil
}

// Attest signs the challenge with the element's attestation identity key.
func (b *Backend) Attest(challenge []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attestKey == nil {
		key, err := ecdsa.GenerateKey(elliptic.P256(), b.prng)
		if err != nil {
			return nil, backend.ErrAttest
		}
		b.attestKey = key
	}
	digest := sha256.Sum256(challenge)
	sig, err := ecdsa.SignASN1(b.prng, b.attestKey, digest[:])
	if err != nil {
		return nil, backend.ErrAttest
	}
	return sig, nil
}

// PublicKey returns the verifying half of a key slot's signing key,
// generating the key pair on first use. Real silicon exposes the same
// through its public key read command.
func (b *Backend) PublicKey(keySlot uint8) (*ecdsa.PublicKey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key, err := b.keyForSlot(keySlot)
	if err != nil {
		return nil, err
	}
	return &key.PublicKey, nil
}

// AttestationKey returns the verifying half of the attestation identity,
// generating it on first use.
func (b *Backend) AttestationKey() (*ecdsa.PublicKey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attestKey == nil {
		key, err := ecdsa.GenerateKey(elliptic.P256(), b.prng)
		if err != nil {
			return nil, backend.ErrAttest
		}
		b.attestKey = key
	}
	return &b.attestKey.PublicKey, nil
}

// DeviceInfo returns the element identity.
func (b *Backend) DeviceInfo() backend.DeviceInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// HardLock forces PinVerify to report PinLocked, emulating an element that
// has exhausted its own attempt counter.
func (b *Backend) HardLock(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hardLocked = on
}

// FailWrites injects slot write faults for testing HARDWARE_ERROR paths.
func (b *Backend) FailWrites(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failWrites = on
}

// FailReads injects slot read faults.
func (b *Backend) FailReads(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failReads = on
}

// FailErases injects slot erase faults.
func (b *Backend) FailErases(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failErases = on
}

func (b *Backend) keyForSlot(slot uint8) (*ecdsa.PrivateKey, error) {
	if key, ok := b.keys[slot]; ok {
		return key, nil
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), b.prng)
	if err != nil {
		return nil, backend.ErrSign
	}
	b.keys[slot] = key
	return key, nil
}

func pinWellFormed(pin string) bool {
	if len(pin) < 4 || len(pin) > 16 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

var _ backend.SecureElement = (*Backend)(nil)
