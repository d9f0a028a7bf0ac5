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

package backend

import "errors"

var (
	// ErrSlotOutOfRange is returned when a slot index falls outside the
	// element's addressable range.
	ErrSlotOutOfRange = errors.New("backend: slot index out of range")

	// ErrSlotTooLarge is returned when a write exceeds the slot capacity.
	ErrSlotTooLarge = errors.New("backend: data exceeds slot capacity")

	// ErrSlotIO is returned when the element reports a storage fault.
	ErrSlotIO = errors.New("backend: slot I/O failure")

	// ErrRNG is returned when the hardware RNG fails to produce entropy.
	ErrRNG = errors.New("backend: rng failure")

	// ErrSign is returned when the ECDSA engine rejects a signing request.
	ErrSign = errors.New("backend: signing failure")

	// ErrAttest is returned when attestation fails.
	ErrAttest = errors.New("backend: attestation failure")
)
