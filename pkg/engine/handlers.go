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

package engine

import (
	"encoding/hex"
	"hash/fnv"

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

// attestChallengeLen is the random challenge size fed to the attestation
// engine.
const attestChallengeLen = 32

func (e *Engine) handleDiscover(cmd *avp.Command) *avp.Response {
	info := e.se.DeviceInfo()
	return avp.Success(cmd.Op, &avp.DiscoverPayload{
		Version:       avp.Version,
		BackendType:   avp.BackendType,
		Manufacturer:  avp.Manufacturer,
		Model:         avp.Model,
		Serial:        info.Serial,
		HWSign:        true,
		HWAttest:      true,
		MaxSecrets:    avp.MaxSecrets,
		MaxSecretSize: avp.MaxSecretSize,
	})
}

func (e *Engine) handleAuthenticate(cmd *avp.Command) *avp.Response {
	// Only PIN authentication is honored. An absent auth_method is read as
	// "pin" for host convenience; anything else is rejected outright.
	if cmd.AuthMethod != "" && cmd.AuthMethod != "pin" {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter,
			"unsupported auth_method %q", cmd.AuthMethod))
	}

	desc, err := e.session.Authenticate(cmd.PIN, cmd.Workspace, cmd.TTL)
	if err != nil {
		return avp.Failure(cmd.Op, err)
	}
	return avp.Success(cmd.Op, &avp.AuthPayload{
		SessionID: desc.ID,
		ExpiresIn: desc.ExpiresIn,
		Workspace: desc.Workspace,
	})
}

// handleStore services STORE and ROTATE. ROTATE of an absent name takes the
// same insertion path as STORE, matching the device firmware; hosts that
// want strict replace semantics must check existence via LIST first.
func (e *Engine) handleStore(cmd *avp.Command) *avp.Response {
	if cmd.Name == "" {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter, "missing secret name"))
	}
	if err := e.index.Put(cmd.Name, []byte(cmd.Value), e.se.Now()); err != nil {
		return avp.Failure(cmd.Op, err)
	}
	return avp.Success(cmd.Op, nil)
}

func (e *Engine) handleRetrieve(cmd *avp.Command) *avp.Response {
	if cmd.Name == "" {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter, "missing secret name"))
	}
	value, err := e.index.Get(cmd.Name)
	if err != nil {
		return avp.Failure(cmd.Op, err)
	}
	// The value leaves the engine with the response; nothing is cached.
	return avp.Success(cmd.Op, &avp.ValuePayload{Value: string(value)})
}

func (e *Engine) handleDelete(cmd *avp.Command) *avp.Response {
	if cmd.Name == "" {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter, "missing secret name"))
	}
	if err := e.index.Remove(cmd.Name); err != nil {
		return avp.Failure(cmd.Op, err)
	}
	return avp.Success(cmd.Op, nil)
}

func (e *Engine) handleList(cmd *avp.Command) *avp.Response {
	return avp.Success(cmd.Op, &avp.SecretsPayload{Names: e.index.Names()})
}

func (e *Engine) handleHWChallenge(cmd *avp.Command) *avp.Response {
	info := e.se.DeviceInfo()
	return avp.Success(cmd.Op, &avp.ChallengePayload{
		Verified: true,
		Model:    info.Model,
		Serial:   info.Serial,
	})
}

func (e *Engine) handleHWSign(cmd *avp.Command) *avp.Response {
	if cmd.KeyName == "" {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter, "missing key_name"))
	}
	if len(cmd.Data) == 0 {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidParameter, "missing data"))
	}
	sig, err := e.se.Sign(keySlotFor(cmd.KeyName), cmd.Data)
	if err != nil {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindCryptoError, "signing failed"))
	}
	return avp.Success(cmd.Op, &avp.SignaturePayload{Signature: hex.EncodeToString(sig)})
}

func (e *Engine) handleHWAttest(cmd *avp.Command) *avp.Response {
	challenge, err := e.se.Random(attestChallengeLen)
	if err != nil {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindHardwareError, "challenge generation failed"))
	}
	sig, err := e.se.Attest(challenge)
	if err != nil {
		return avp.Failure(cmd.Op, avp.Errf(avp.KindCryptoError, "attestation failed"))
	}
	// challenge:signature, both hex, so the host can verify what was signed.
	return avp.Success(cmd.Op, &avp.AttestationPayload{
		Attestation: hex.EncodeToString(challenge) + ":" + hex.EncodeToString(sig),
	})
}

// keySlotFor maps a key name onto the element's key slot range. The mapping
// is a stable FNV-1a hash so a given name always addresses the same slot.
func keySlotFor(keyName string) uint8 {
	h := fnv.New32a()
	h.Write([]byte(keyName))
	slots := uint32(avp.KeySlotLast - avp.KeySlotFirst + 1)
	return uint8(avp.KeySlotFirst + h.Sum32()%slots)
}
