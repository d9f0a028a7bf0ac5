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

// Package transport implements the line-delimited framing the device speaks
// over USB CDC, generalized to any io.ReadWriter so the simulator can serve
// TCP connections and tests can drive byte buffers.
package transport

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/jeremyhahn/go-avp/pkg/avp"
	"github.com/jeremyhahn/go-avp/pkg/correlation"
	"github.com/jeremyhahn/go-avp/pkg/logging"
)

// maxLineLen bounds one framed request line. Anything longer is rejected
// without buffering the remainder.
const maxLineLen = avp.MaxJSONLen + 2

// parseFailure is written when framing itself fails (oversize line); the
// engine never sees such input.
var parseFailure = []byte(`{"ok":false,"error":"PARSE_ERROR","message":"request line too long"}`)

// Processor handles one raw request and returns one encoded response.
// *engine.Engine satisfies this.
type Processor interface {
	Process(raw []byte) []byte
}

// Serve pumps newline-delimited requests from rw through proc until EOF,
// read error, or context cancellation. Blank lines are skipped. Each
// exchange is logged under a fresh request ID.
func Serve(ctx context.Context, rw io.ReadWriter, proc Processor, logger *logging.Logger) error {
	scanner := bufio.NewScanner(rw)
	scanner.Buffer(make([]byte, 0, 1024), maxLineLen)

	// The caller stamps a connection-scoped ID into ctx; each exchange gets
	// its own ID beneath it.
	connID := correlation.RequestID(ctx)

	writer := bufio.NewWriter(rw)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(trimSpace(line)) == 0 {
			continue
		}

		id := correlation.New()
		start := time.Now()
		resp := proc.Process(line)
		logger.Debug("exchange complete",
			"conn_id", connID,
			"request_id", id,
			"request_bytes", len(line),
			"response_bytes", len(resp),
			"duration", time.Since(start))

		if err := writeLine(writer, resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			// Tell the host what happened before dropping the connection.
			_ = writeLine(writer, parseFailure)
		}
		return err
	}
	return nil
}

func writeLine(w *bufio.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
