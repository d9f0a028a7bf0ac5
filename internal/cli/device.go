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

package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Query device identity and capabilities",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := connect()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Discover()
		if err != nil {
			fail(err)
		}
		lines := []string{
			fmt.Sprintf("Protocol:     AVP %s", resp.Version),
			fmt.Sprintf("Manufacturer: %s", resp.Manufacturer),
			fmt.Sprintf("Model:        %s", resp.Model),
			fmt.Sprintf("Serial:       %s", resp.Serial),
			fmt.Sprintf("Backend:      %s", resp.BackendType),
		}
		if caps := resp.Capabilities; caps != nil {
			lines = append(lines,
				fmt.Sprintf("Capabilities: hw_sign=%v hw_attest=%v max_secrets=%d max_secret_size=%d",
					caps.HWSign, caps.HWAttest, caps.MaxSecrets, caps.MaxSecretSize))
		}
		if err := printResponse(resp, lines...); err != nil {
			fail(err)
		}
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Verify device authenticity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := connect()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Challenge()
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp,
			fmt.Sprintf("Verified: %v", resp.Verified),
			fmt.Sprintf("Model:    %s", resp.Model),
			fmt.Sprintf("Serial:   %s", resp.Serial)); err != nil {
			fail(err)
		}
	},
}

var signHex bool

var signCmd = &cobra.Command{
	Use:   "sign <key-name> <data>",
	Short: "Sign data with a device key",
	Long: `Sign data with the device key addressed by <key-name>.

Data is taken as a UTF-8 string unless --hex is given, in which case it is
decoded from hex first. The signature is printed as lowercase hex.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		data := []byte(args[1])
		if signHex {
			decoded, err := hex.DecodeString(args[1])
			if err != nil {
				fail(fmt.Errorf("invalid hex data: %w", err))
			}
			data = decoded
		}

		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Sign(args[0], data)
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, resp.Signature); err != nil {
			fail(err)
		}
	},
}

var attestCmd = &cobra.Command{
	Use:   "attest",
	Short: "Request a device attestation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Attest()
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, resp.Attestation); err != nil {
			fail(err)
		}
	},
}

func init() {
	signCmd.Flags().BoolVar(&signHex, "hex", false, "treat <data> as hex-encoded bytes")
}
