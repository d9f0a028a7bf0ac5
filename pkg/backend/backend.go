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

// Package backend defines the secure element capability set the protocol
// engine consumes. Implementations may be real silicon behind a device
// driver or an in-memory fake for tests and the simulator; both satisfy the
// same contract and are behaviorally interchangeable from the engine's
// perspective.
package backend

// PinResult is the outcome of a PIN verification attempt as reported by the
// secure element.
type PinResult uint8

const (
	// PinOK means the PIN matched.
	PinOK PinResult = iota

	// PinInvalid means the PIN did not match or was malformed.
	PinInvalid

	// PinLocked means the element has hard-locked PIN verification.
	PinLocked
)

// DeviceInfo identifies the physical device.
type DeviceInfo struct {
	Model    string
	Serial   string
	Firmware string
}

// SecureElement is the capability set the protocol engine depends on. The
// engine never holds key material or secret bytes beyond the lifetime of a
// single operation; everything persistent lives behind this interface.
//
// Slot indices use the element's native addressing; the engine confines
// itself to the data slot range for secrets and the key slot range for
// signing. Only these calls may block on hardware I/O.
type SecureElement interface {
	// Now returns monotonic seconds from the element's clock.
	Now() uint32

	// Random fills and returns n bytes from the hardware RNG.
	Random(n int) ([]byte, error)

	// SlotWrite replaces the contents of a data slot.
	SlotWrite(slot uint8, data []byte) error

	// SlotRead returns the current contents of a data slot. The returned
	// length is whatever the element last stored.
	SlotRead(slot uint8) ([]byte, error)

	// SlotErase zeroizes a data slot.
	SlotErase(slot uint8) error

	// PinVerify checks the PIN against the element's stored credential.
	// The error return is reserved for transport faults; a wrong PIN is a
	// PinResult, not an error.
	PinVerify(pin string) (PinResult, error)

	// Sign produces an ECDSA signature over data with the key in keySlot.
	Sign(keySlot uint8, data []byte) ([]byte, error)

	// Attest produces a signature over the supplied challenge using the
	// element's attestation identity.
	Attest(challenge []byte) ([]byte, error)

	// DeviceInfo returns the element's identity fields.
	DeviceInfo() DeviceInfo
}
