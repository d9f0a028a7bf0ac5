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

// Package engine is the AVP dispatcher: it decodes one request, verifies the
// session precondition, executes the operation handler and encodes the
// response.
//
// The engine is the sole owner of the session record and the secret index;
// both are mutated only while a request is being serviced, and every entry
// into Process is serialized behind a single mutex so the observable
// operation sequence is linearizable. The engine is also the only component
// that rejects unauthenticated operations; handlers assume their
// preconditions hold.
package engine

import (
	"sync"
	"time"

	"github.com/jeremyhahn/go-avp/pkg/avp"
	"github.com/jeremyhahn/go-avp/pkg/backend"
	"github.com/jeremyhahn/go-avp/pkg/codec"
	"github.com/jeremyhahn/go-avp/pkg/index"
	"github.com/jeremyhahn/go-avp/pkg/logging"
	"github.com/jeremyhahn/go-avp/pkg/metrics"
	"github.com/jeremyhahn/go-avp/pkg/session"
)

// Engine processes AVP requests against a secure element.
type Engine struct {
	mu      sync.Mutex
	se      backend.SecureElement
	session *session.Manager
	index   *index.Index
	logger  *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine bound to a secure element.
func New(se backend.SecureElement, opts ...Option) *Engine {
	e := &Engine{
		se:      se,
		session: session.NewManager(se),
		index:   index.New(se),
		logger:  logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process handles one raw request line and returns one encoded response
// line (without trailing newline; the transport owns framing). It never
// returns an empty slice: every input, however malformed, produces exactly
// one JSON object.
func (e *Engine) Process(raw []byte) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	resp := e.process(raw)

	code := ""
	if resp.Kind != avp.KindOK {
		code = resp.Kind.Code()
	}
	metrics.RecordRequest(resp.Op.String(), code, start)
	if resp.Kind == avp.KindPINInvalid {
		metrics.PINFailuresTotal.Inc()
	}
	if e.session.Active() {
		metrics.SessionActive.Set(1)
	} else {
		metrics.SessionActive.Set(0)
	}
	metrics.SecretsStored.Set(float64(e.index.Count()))

	e.logger.Debug("request processed",
		"op", resp.Op.String(),
		"ok", resp.Kind == avp.KindOK,
		"error", code,
		"duration", time.Since(start))

	return codec.Encode(resp)
}

func (e *Engine) process(raw []byte) *avp.Response {
	cmd, derr := codec.Decode(raw)
	if derr != nil {
		return avp.Failure(avp.OpUnknown, derr)
	}

	if cmd.Op.RequiresSession() {
		if err := e.checkSession(); err != nil {
			return avp.Failure(cmd.Op, err)
		}
	}

	return e.dispatch(cmd)
}

// checkSession maps a missing session to NOT_AUTHENTICATED and an expired
// one, observed at dispatch entry, to SESSION_EXPIRED.
func (e *Engine) checkSession() *avp.Error {
	if !e.session.Active() {
		return avp.Errf(avp.KindNotAuthenticated, "no active session")
	}
	if !e.session.IsValid(e.se.Now()) {
		return avp.Errf(avp.KindSessionExpired, "session TTL elapsed")
	}
	return nil
}

func (e *Engine) dispatch(cmd *avp.Command) *avp.Response {
	switch cmd.Op {
	case avp.OpDiscover:
		return e.handleDiscover(cmd)
	case avp.OpAuthenticate:
		return e.handleAuthenticate(cmd)
	case avp.OpStore, avp.OpRotate:
		return e.handleStore(cmd)
	case avp.OpRetrieve:
		return e.handleRetrieve(cmd)
	case avp.OpDelete:
		return e.handleDelete(cmd)
	case avp.OpList:
		return e.handleList(cmd)
	case avp.OpHWChallenge:
		return e.handleHWChallenge(cmd)
	case avp.OpHWSign:
		return e.handleHWSign(cmd)
	case avp.OpHWAttest:
		return e.handleHWAttest(cmd)
	default:
		return avp.Failure(cmd.Op, avp.Errf(avp.KindInvalidOperation, "unknown operation"))
	}
}

// Invalidate discards the current session, if any. The simulator calls this
// on shutdown to mirror a device power cycle; the protocol itself has no
// logout operation.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Invalidate()
}
