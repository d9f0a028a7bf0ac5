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

package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-avp/pkg/correlation"
	"github.com/jeremyhahn/go-avp/pkg/logging"
)

// echoProcessor returns each request wrapped, so tests can see exactly what
// the framing layer delivered.
type echoProcessor struct {
	requests [][]byte
}

func (p *echoProcessor) Process(raw []byte) []byte {
	p.requests = append(p.requests, append([]byte(nil), raw...))
	return append([]byte(`echo:`), raw...)
}

// duplex glues a request stream to a response buffer.
type duplex struct {
	io.Reader
	io.Writer
}

func serveString(t *testing.T, in string) (*echoProcessor, string, error) {
	t.Helper()
	proc := &echoProcessor{}
	var out bytes.Buffer
	err := Serve(context.Background(), duplex{strings.NewReader(in), &out}, proc, logging.DefaultLogger())
	return proc, out.String(), err
}

func TestServeExchanges(t *testing.T) {
	proc, out, err := serveString(t, "{\"op\":\"DISCOVER\"}\n{\"op\":\"LIST\"}\n")
	require.NoError(t, err)
	require.Len(t, proc.requests, 2)
	assert.Equal(t, "echo:{\"op\":\"DISCOVER\"}\necho:{\"op\":\"LIST\"}\n", out)
}

func TestServeSkipsBlankLines(t *testing.T) {
	proc, out, err := serveString(t, "\n   \n{\"op\":\"LIST\"}\n\r\n")
	require.NoError(t, err)
	require.Len(t, proc.requests, 1)
	assert.Equal(t, "echo:{\"op\":\"LIST\"}\n", out)
}

func TestServeEOFWithoutTrailingNewline(t *testing.T) {
	proc, _, err := serveString(t, `{"op":"LIST"}`)
	require.NoError(t, err)
	assert.Len(t, proc.requests, 1)
}

func TestServeOversizeLine(t *testing.T) {
	long := strings.Repeat("x", maxLineLen+1)
	proc, out, err := serveString(t, long+"\n")

	assert.Equal(t, bufio.ErrTooLong, err)
	assert.Empty(t, proc.requests, "oversize input must not reach the engine")
	assert.Equal(t, string(parseFailure)+"\n", out)
}

func TestServeWithConnectionID(t *testing.T) {
	ctx := correlation.WithRequestID(context.Background(), correlation.New())

	proc := &echoProcessor{}
	var out bytes.Buffer
	err := Serve(ctx, duplex{strings.NewReader("{\"op\":\"LIST\"}\n"), &out}, proc, logging.DefaultLogger())
	require.NoError(t, err)
	assert.Len(t, proc.requests, 1)
}

func TestServeContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &echoProcessor{}
	var out bytes.Buffer
	err := Serve(ctx, duplex{strings.NewReader("{\"op\":\"LIST\"}\n"), &out}, proc, logging.DefaultLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, proc.requests)
}
