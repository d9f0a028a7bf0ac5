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

// Package codec implements the AVP wire codec: a tolerant JSON request
// decoder and a strict, byte-stable JSON response encoder.
//
// The decoder extracts the fields it knows and ignores everything else; all
// per-field type and length constraints are enforced here so that operation
// handlers can assume well-formed input. The encoder produces exactly one
// JSON object per response with a fixed field order per operation.
package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

// Decode parses one newline-terminated JSON request into a Command. Leading
// whitespace before the object is permitted and unknown fields are ignored.
//
// Failure mapping: malformed JSON or a missing/non-string op field yields
// PARSE_ERROR; an opcode outside the closed set yields INVALID_OPERATION;
// oversize or wrongly typed fields and malformed hex yield INVALID_PARAMETER.
func Decode(raw []byte) (*avp.Command, *avp.Error) {
	if len(raw) > avp.MaxJSONLen {
		return nil, avp.Errf(avp.KindParseError, "request exceeds %d bytes", avp.MaxJSONLen)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, avp.Errf(avp.KindParseError, "malformed JSON request")
	}

	opField, ok := fields["op"]
	if !ok {
		return nil, avp.Errf(avp.KindParseError, "missing op field")
	}
	opStr, ok := opField.(string)
	if !ok {
		return nil, avp.Errf(avp.KindParseError, "op must be a string")
	}
	op, ok := avp.ParseOp(opStr)
	if !ok {
		return nil, avp.Errf(avp.KindInvalidOperation, "unknown operation %q", opStr)
	}

	cmd := &avp.Command{Op: op}

	var err *avp.Error
	if cmd.SessionID, err = stringField(fields, "session_id", avp.SessionIDLen, false); err != nil {
		return nil, err
	}
	if cmd.Workspace, err = stringField(fields, "workspace", avp.MaxNameLen, true); err != nil {
		return nil, err
	}
	if cmd.Name, err = stringField(fields, "name", avp.MaxNameLen, true); err != nil {
		return nil, err
	}
	if cmd.Value, err = stringField(fields, "value", avp.MaxValueLen, false); err != nil {
		return nil, err
	}
	if cmd.AuthMethod, err = stringField(fields, "auth_method", 16, false); err != nil {
		return nil, err
	}
	if cmd.PIN, err = stringField(fields, "pin", avp.MaxPINLen, false); err != nil {
		return nil, err
	}
	if cmd.KeyName, err = stringField(fields, "key_name", avp.MaxNameLen, true); err != nil {
		return nil, err
	}

	// requested_ttl takes precedence over the legacy ttl field.
	if cmd.TTL, err = uintField(fields, "ttl"); err != nil {
		return nil, err
	}
	if ttl, err := uintField(fields, "requested_ttl"); err != nil {
		return nil, err
	} else if ttl != 0 {
		cmd.TTL = ttl
	}

	if cmd.Data, err = hexField(fields, "data"); err != nil {
		return nil, err
	}

	return cmd, nil
}

// stringField extracts an optional string field, enforcing its length bound
// and, for name-like fields, printability.
func stringField(fields map[string]any, key string, maxLen int, printable bool) (string, *avp.Error) {
	v, ok := fields[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", avp.Errf(avp.KindInvalidParameter, "%s must be a string", key)
	}
	if len(s) > maxLen {
		return "", avp.Errf(avp.KindInvalidParameter, "%s exceeds %d bytes", key, maxLen)
	}
	if printable {
		for i := 0; i < len(s); i++ {
			if s[i] < 0x20 || s[i] == 0x7f {
				return "", avp.Errf(avp.KindInvalidParameter, "%s contains control characters", key)
			}
		}
	}
	return s, nil
}

// uintField extracts an optional unsigned integer field.
func uintField(fields map[string]any, key string) (uint32, *avp.Error) {
	v, ok := fields[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, avp.Errf(avp.KindInvalidParameter, "%s must be an integer", key)
	}
	i, err := n.Int64()
	if err != nil || i < 0 || i > math.MaxUint32 {
		return 0, avp.Errf(avp.KindInvalidParameter, "%s must be an unsigned integer", key)
	}
	return uint32(i), nil
}

// hexField extracts the optional hex-encoded data field.
func hexField(fields map[string]any, key string) ([]byte, *avp.Error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, avp.Errf(avp.KindInvalidParameter, "%s must be a hex string", key)
	}
	if len(s)%2 != 0 {
		return nil, avp.Errf(avp.KindInvalidParameter, "%s has odd hex length", key)
	}
	if len(s)/2 > avp.MaxDataLen {
		return nil, avp.Errf(avp.KindInvalidParameter, "%s exceeds %d bytes", key, avp.MaxDataLen)
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, avp.Errf(avp.KindInvalidParameter, "%s is not valid hex", key)
	}
	return data, nil
}
