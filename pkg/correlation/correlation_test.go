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

package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	id := New()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("New() = %q, not a valid UUID: %v", id, err)
	}
	if New() == id {
		t.Error("New() returned the same identifier twice")
	}
}

func TestWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		id   string
	}{
		{
			name: "Add request ID to context",
			ctx:  context.Background(),
			id:   "test-request-id",
		},
		{
			name: "Add request ID to nil context",
			ctx:  nil,
			id:   "test-request-id-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(tt.ctx, tt.id)
			if ctx == nil {
				t.Fatal("WithRequestID returned nil context")
			}
			if got := RequestID(ctx); got != tt.id {
				t.Errorf("RequestID() = %v, want %v", got, tt.id)
			}
		})
	}
}

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "Background context", ctx: context.Background()},
		{name: "Nil context", ctx: nil},
		{name: "Empty ID in context", ctx: WithRequestID(context.Background(), "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := RequestID(tt.ctx)
			if id == "" {
				t.Error("RequestID() returned empty string")
			}
			if _, err := uuid.Parse(id); err != nil {
				t.Errorf("RequestID() = %q, not a valid UUID: %v", id, err)
			}
		})
	}
}
