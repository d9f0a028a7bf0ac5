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

// Package index maintains the in-memory secret metadata table: the mapping
// from secret name to its assigned secure element data slot and timestamps.
//
// The table is a fixed array of 32 entries. Entry i owns data slot 96+i for
// its lifetime; deletion leaves a tombstone that later insertions reuse
// under a lowest-free-index policy, and enumeration walks the table in
// entry order so LIST output is deterministic.
//
// Secret bytes never live here. Writes pass through to the backend slot
// before any metadata is committed, and reads fetch the slot contents
// just-in-time.
package index

import (
	"github.com/jeremyhahn/go-avp/pkg/avp"
	"github.com/jeremyhahn/go-avp/pkg/backend"
)

// Meta is one secret's metadata record.
type Meta struct {
	Name      string
	Slot      uint8
	CreatedAt uint32
	UpdatedAt uint32
	InUse     bool
}

// Index is the metadata table. It is not safe for concurrent use; the
// engine serializes all access behind its dispatch mutex.
type Index struct {
	se      backend.SecureElement
	entries [avp.MaxSecrets]Meta
	count   uint8
}

// New creates an empty index bound to a secure element.
func New(se backend.SecureElement) *Index {
	return &Index{se: se}
}

// Put stores value under name, allocating a metadata entry and its data
// slot for a new name or overwriting the slot of an existing one.
//
// The slot write happens first; metadata is committed only after the write
// succeeds, so a backend fault leaves the table untouched. A full table
// yields CAPACITY_EXCEEDED before any backend traffic.
func (ix *Index) Put(name string, value []byte, now uint32) *avp.Error {
	if len(value) > avp.MaxSecretSize {
		return avp.Errf(avp.KindInvalidParameter, "value exceeds %d bytes", avp.MaxSecretSize)
	}

	i := ix.find(name)
	fresh := i < 0
	if fresh {
		i = ix.freeEntry()
		if i < 0 {
			return avp.Errf(avp.KindCapacityExceeded, "all %d secret slots in use", avp.MaxSecrets)
		}
	}

	slot := uint8(avp.DataSlotFirst + i)
	if err := ix.se.SlotWrite(slot, value); err != nil {
		return avp.Errf(avp.KindHardwareError, "slot write failed")
	}

	if fresh {
		ix.entries[i] = Meta{Name: name, Slot: slot, CreatedAt: now, InUse: true}
		ix.count++
	}
	ix.entries[i].UpdatedAt = now
	return nil
}

// Get reads the secret bytes for name from its backend slot.
func (ix *Index) Get(name string) ([]byte, *avp.Error) {
	i := ix.find(name)
	if i < 0 {
		return nil, avp.Errf(avp.KindSecretNotFound, "no secret named %q", name)
	}
	value, err := ix.se.SlotRead(ix.entries[i].Slot)
	if err != nil {
		return nil, avp.Errf(avp.KindHardwareError, "slot read failed")
	}
	return value, nil
}

// Remove erases the backing slot and clears the metadata entry. If the
// erase fails the entry is retained so the secret is not silently lost.
func (ix *Index) Remove(name string) *avp.Error {
	i := ix.find(name)
	if i < 0 {
		return avp.Errf(avp.KindSecretNotFound, "no secret named %q", name)
	}
	if err := ix.se.SlotErase(ix.entries[i].Slot); err != nil {
		return avp.Errf(avp.KindHardwareError, "slot erase failed")
	}
	ix.entries[i] = Meta{}
	ix.count--
	return nil
}

// Names enumerates in-use entries in table order. The result is never nil.
func (ix *Index) Names() []string {
	names := make([]string, 0, ix.count)
	for i := range ix.entries {
		if ix.entries[i].InUse {
			names = append(names, ix.entries[i].Name)
		}
	}
	return names
}

// Count returns the number of in-use entries.
func (ix *Index) Count() int {
	return int(ix.count)
}

// Lookup returns a copy of the metadata record for name, if present.
func (ix *Index) Lookup(name string) (Meta, bool) {
	i := ix.find(name)
	if i < 0 {
		return Meta{}, false
	}
	return ix.entries[i], true
}

func (ix *Index) find(name string) int {
	for i := range ix.entries {
		if ix.entries[i].InUse && ix.entries[i].Name == name {
			return i
		}
	}
	return -1
}

func (ix *Index) freeEntry() int {
	for i := range ix.entries {
		if !ix.entries[i].InUse {
			return i
		}
	}
	return -1
}
