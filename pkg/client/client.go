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

// Package client is the host-side AVP client library. It speaks the
// newline-delimited JSON protocol over a TCP or Unix socket connection to a
// device (or the simulator) and offers one typed helper per operation.
//
// The session identifier returned by Authenticate is remembered and
// attached to subsequent requests for host-side bookkeeping; the device
// enforces session liveness, not identifier equality.
package client

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jeremyhahn/go-avp/pkg/avp"
)

var (
	// ErrNotConnected is returned when the client has been closed.
	ErrNotConnected = errors.New("client: not connected")

	// ErrResponseTooLong is returned when the device response exceeds the
	// protocol line limit.
	ErrResponseTooLong = errors.New("client: response line too long")
)

// ProtocolError is a device failure response surfaced as an error.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("device error %s: %s", e.Code, e.Message)
}

// Config configures a Client.
type Config struct {
	// Network is "tcp" or "unix"; defaults to "tcp".
	Network string

	// Address is the device endpoint, e.g. "127.0.0.1:7542".
	Address string

	// Timeout applies to dialing and to each request/response exchange.
	// Defaults to 10 seconds.
	Timeout time.Duration
}

// Client is a connected AVP host client. It is not safe for concurrent use.
type Client struct {
	conn      net.Conn
	reader    *bufio.Reader
	timeout   time.Duration
	sessionID string
}

// request is the wire shape of one host request.
type request struct {
	Op           string `json:"op"`
	SessionID    string `json:"session_id,omitempty"`
	Workspace    string `json:"workspace,omitempty"`
	Name         string `json:"name,omitempty"`
	Value        string `json:"value,omitempty"`
	AuthMethod   string `json:"auth_method,omitempty"`
	PIN          string `json:"pin,omitempty"`
	RequestedTTL uint32 `json:"requested_ttl,omitempty"`
	KeyName      string `json:"key_name,omitempty"`
	Data         string `json:"data,omitempty"`
}

// Capabilities is the device capability descriptor from DISCOVER.
type Capabilities struct {
	HWSign        bool   `json:"hw_sign"`
	HWAttest      bool   `json:"hw_attest"`
	MaxSecrets    uint32 `json:"max_secrets"`
	MaxSecretSize uint32 `json:"max_secret_size"`
}

// Response is the flat union of all device response fields. Only the fields
// relevant to the requested operation are populated.
type Response struct {
	OK           bool          `json:"ok"`
	Error        string        `json:"error,omitempty"`
	Message      string        `json:"message,omitempty"`
	Version      string        `json:"version,omitempty"`
	BackendType  string        `json:"backend_type,omitempty"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	Model        string        `json:"model,omitempty"`
	Serial       string        `json:"serial,omitempty"`
	Capabilities *Capabilities `json:"capabilities,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	ExpiresIn    uint32        `json:"expires_in,omitempty"`
	Workspace    string        `json:"workspace,omitempty"`
	Value        string        `json:"value,omitempty"`
	Secrets      []string      `json:"secrets,omitempty"`
	Verified     bool          `json:"verified,omitempty"`
	Signature    string        `json:"signature,omitempty"`
	Attestation  string        `json:"attestation,omitempty"`
}

// New dials the device and returns a connected client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, errors.New("client: address is required")
	}
	network := cfg.Network
	if network == "" {
		network = "tcp"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout(network, cfg.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", cfg.Address, err)
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, avp.MaxJSONLen+2),
		timeout: timeout,
	}, nil
}

// Close terminates the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// SessionID returns the identifier from the last successful Authenticate.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Discover queries the device identity and capability descriptor.
func (c *Client) Discover() (*Response, error) {
	return c.do(request{Op: avp.OpDiscover.String()})
}

// Authenticate opens a session with the device PIN. workspace and ttl are
// optional; zero values select the device defaults.
func (c *Client) Authenticate(pin, workspace string, ttl uint32) (*Response, error) {
	resp, err := c.do(request{
		Op:           avp.OpAuthenticate.String(),
		AuthMethod:   "pin",
		PIN:          pin,
		Workspace:    workspace,
		RequestedTTL: ttl,
	})
	if err != nil {
		return resp, err
	}
	c.sessionID = resp.SessionID
	return resp, nil
}

// Store writes a named secret.
func (c *Client) Store(name, value string) (*Response, error) {
	return c.do(request{Op: avp.OpStore.String(), SessionID: c.sessionID, Name: name, Value: value})
}

// Retrieve reads a named secret.
func (c *Client) Retrieve(name string) (*Response, error) {
	return c.do(request{Op: avp.OpRetrieve.String(), SessionID: c.sessionID, Name: name})
}

// Delete removes a named secret and erases its device slot.
func (c *Client) Delete(name string) (*Response, error) {
	return c.do(request{Op: avp.OpDelete.String(), SessionID: c.sessionID, Name: name})
}

// List enumerates stored secret names in insertion order.
func (c *Client) List() (*Response, error) {
	return c.do(request{Op: avp.OpList.String(), SessionID: c.sessionID})
}

// Rotate replaces a secret's value in place.
func (c *Client) Rotate(name, value string) (*Response, error) {
	return c.do(request{Op: avp.OpRotate.String(), SessionID: c.sessionID, Name: name, Value: value})
}

// Challenge performs the unauthenticated device-authenticity echo.
func (c *Client) Challenge() (*Response, error) {
	return c.do(request{Op: avp.OpHWChallenge.String()})
}

// Sign asks the device to sign data with the named key. The signature in
// the response is lowercase hex.
func (c *Client) Sign(keyName string, data []byte) (*Response, error) {
	return c.do(request{
		Op:        avp.OpHWSign.String(),
		SessionID: c.sessionID,
		KeyName:   keyName,
		Data:      hex.EncodeToString(data),
	})
}

// Attest requests a device attestation over a device-generated challenge.
func (c *Client) Attest() (*Response, error) {
	return c.do(request{Op: avp.OpHWAttest.String(), SessionID: c.sessionID})
}

// do sends one request line and reads one response line. Device failure
// responses are returned as *ProtocolError alongside the decoded response.
func (c *Client) do(req request) (*Response, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("client: encoding request: %w", err)
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("client: writing request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}
	if len(line) > avp.MaxJSONLen+1 {
		return nil, ErrResponseTooLong
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("client: decoding response: %w", err)
	}
	if !resp.OK {
		return &resp, &ProtocolError{Code: resp.Error, Message: resp.Message}
	}
	return &resp, nil
}
