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
	"encoding/json"

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

// internalFailure is the canonical response substituted when encoding itself
// fails or the encoded response would exceed the line limit. It never leaks
// partial content.
var internalFailure = []byte(`{"ok":false,"error":"INTERNAL_ERROR","message":"INTERNAL_ERROR"}`)

// Wire shapes. Field order is fixed by struct order so output is byte-stable
// per operation.

type failureWire struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type emptyWire struct {
	OK bool `json:"ok"`
}

type capabilitiesWire struct {
	HWSign        bool   `json:"hw_sign"`
	HWAttest      bool   `json:"hw_attest"`
	MaxSecrets    uint32 `json:"max_secrets"`
	MaxSecretSize uint32 `json:"max_secret_size"`
}

type discoverWire struct {
	OK           bool             `json:"ok"`
	Version      string           `json:"version"`
	BackendType  string           `json:"backend_type"`
	Manufacturer string           `json:"manufacturer"`
	Model        string           `json:"model"`
	Serial       string           `json:"serial"`
	Capabilities capabilitiesWire `json:"capabilities"`
}

type authWire struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id"`
	ExpiresIn uint32 `json:"expires_in"`
	Workspace string `json:"workspace"`
}

type valueWire struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

type secretsWire struct {
	OK      bool     `json:"ok"`
	Secrets []string `json:"secrets"`
}

type challengeWire struct {
	OK       bool   `json:"ok"`
	Verified bool   `json:"verified"`
	Model    string `json:"model"`
	Serial   string `json:"serial"`
}

type signatureWire struct {
	OK        bool   `json:"ok"`
	Signature string `json:"signature"`
}

type attestationWire struct {
	OK          bool   `json:"ok"`
	Attestation string `json:"attestation"`
}

// Encode renders a response as a single JSON object without a trailing
// newline; the transport owns line framing. Encoding is total: any response
// that cannot be rendered within MaxJSONLen collapses to the canonical
// INTERNAL_ERROR failure.
func Encode(resp *avp.Response) []byte {
	if resp == nil {
		return internalFailure
	}

	var wire any
	if resp.Kind != avp.KindOK {
		msg := resp.Message
		if msg == "" {
			msg = resp.Kind.Code()
		}
		wire = failureWire{OK: false, Error: resp.Kind.Code(), Message: msg}
	} else {
		switch p := resp.Payload.(type) {
		case nil:
			wire = emptyWire{OK: true}
		case *avp.DiscoverPayload:
			wire = discoverWire{
				OK:           true,
				Version:      p.Version,
				BackendType:  p.BackendType,
				Manufacturer: p.Manufacturer,
				Model:        p.Model,
				Serial:       p.Serial,
				Capabilities: capabilitiesWire{
					HWSign:        p.HWSign,
					HWAttest:      p.HWAttest,
					MaxSecrets:    p.MaxSecrets,
					MaxSecretSize: p.MaxSecretSize,
				},
			}
		case *avp.AuthPayload:
			wire = authWire{OK: true, SessionID: p.SessionID, ExpiresIn: p.ExpiresIn, Workspace: p.Workspace}
		case *avp.ValuePayload:
			wire = valueWire{OK: true, Value: p.Value}
		case *avp.SecretsPayload:
			names := p.Names
			if names == nil {
				names = []string{}
			}
			wire = secretsWire{OK: true, Secrets: names}
		case *avp.ChallengePayload:
			wire = challengeWire{OK: true, Verified: p.Verified, Model: p.Model, Serial: p.Serial}
		case *avp.SignaturePayload:
			wire = signatureWire{OK: true, Signature: p.Signature}
		case *avp.AttestationPayload:
			wire = attestationWire{OK: true, Attestation: p.Attestation}
		default:
			return internalFailure
		}
	}

	out, err := json.Marshal(wire)
	if err != nil || len(out) > avp.MaxJSONLen {
		return internalFailure
	}
	return out
}
