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

// Package session tracks the device's single authorization session and its
// PIN-attempt counter.
//
// At most one session exists at a time; a successful AUTHENTICATE overwrites
// any prior session. The PIN-attempt counter persists across authentication
// attempts for the life of the process and, once it reaches the lockout
// threshold, cannot be reset except by restarting the device (power cycle).
//
// A supplied session_id is accepted iff the current session is valid; the
// engine enforces session liveness, not identifier equality. The field
// exists for host-side bookkeeping and future multi-session extension.
package session

import (
	"encoding/hex"

	"github.com/jeremyhahn/go-avp/pkg/avp"
	"github.com/jeremyhahn/go-avp/pkg/backend"
)

// DefaultWorkspace is assigned when AUTHENTICATE carries no workspace.
const DefaultWorkspace = "default"

// Descriptor is the host-visible result of a successful authentication.
type Descriptor struct {
	ID        string
	ExpiresIn uint32
	Workspace string
}

// Manager owns the session record. It is not safe for concurrent use; the
// engine serializes all access behind its dispatch mutex.
type Manager struct {
	se backend.SecureElement

	active      bool
	id          string
	workspace   string
	createdAt   uint32
	ttl         uint32
	pinAttempts uint8
}

// NewManager creates a session manager bound to a secure element.
func NewManager(se backend.SecureElement) *Manager {
	return &Manager{se: se}
}

// Authenticate verifies the PIN with the secure element and, on success,
// replaces any prior session with a fresh one.
//
// The lockout check runs before the backend is consulted: once the attempt
// counter reaches the threshold every call fails with PIN_LOCKED. A backend
// verdict of invalid increments the counter; a verdict of locked pins it at
// the threshold; success resets it to zero.
func (m *Manager) Authenticate(pin, workspace string, requestedTTL uint32) (Descriptor, *avp.Error) {
	if m.pinAttempts >= avp.MaxPINAttempts {
		return Descriptor{}, avp.Errf(avp.KindPINLocked, "PIN locked after %d failed attempts", avp.MaxPINAttempts)
	}

	result, err := m.se.PinVerify(pin)
	if err != nil {
		return Descriptor{}, avp.Errf(avp.KindHardwareError, "PIN verification failed")
	}
	switch result {
	case backend.PinInvalid:
		m.pinAttempts++
		return Descriptor{}, avp.Errf(avp.KindPINInvalid, "invalid PIN")
	case backend.PinLocked:
		m.pinAttempts = avp.MaxPINAttempts
		return Descriptor{}, avp.Errf(avp.KindPINLocked, "PIN locked by secure element")
	}
	m.pinAttempts = 0

	id, err := m.se.Random(avp.SessionIDLen / 2)
	if err != nil {
		return Descriptor{}, avp.Errf(avp.KindHardwareError, "session id generation failed")
	}

	if workspace == "" {
		workspace = DefaultWorkspace
	}

	m.active = true
	m.id = hex.EncodeToString(id)
	m.workspace = workspace
	m.createdAt = m.se.Now()
	m.ttl = clampTTL(requestedTTL)

	return Descriptor{ID: m.id, ExpiresIn: m.ttl, Workspace: m.workspace}, nil
}

// Active reports whether a session exists, without consulting the clock.
// The engine uses this to distinguish NOT_AUTHENTICATED from SESSION_EXPIRED.
func (m *Manager) Active() bool {
	return m.active
}

// IsValid reports session liveness at now. The first observation of expiry
// deactivates the session.
func (m *Manager) IsValid(now uint32) bool {
	if !m.active {
		return false
	}
	if now >= m.createdAt+m.ttl {
		m.active = false
		return false
	}
	return true
}

// Invalidate zeroizes the session identifier and deactivates the session.
// The PIN-attempt counter is left unchanged.
func (m *Manager) Invalidate() {
	m.active = false
	m.id = ""
}

// Attempts returns the current PIN-attempt count.
func (m *Manager) Attempts() uint8 {
	return m.pinAttempts
}

// Locked reports whether the attempt counter has reached the lockout
// threshold.
func (m *Manager) Locked() bool {
	return m.pinAttempts >= avp.MaxPINAttempts
}

func clampTTL(requested uint32) uint32 {
	switch {
	case requested == 0:
		return avp.DefaultTTL
	case requested < avp.MinTTL:
		return avp.MinTTL
	case requested > avp.MaxTTL:
		return avp.MaxTTL
	default:
		return requested
	}
}
