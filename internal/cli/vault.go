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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store <name> <value>",
	Short: "Store a secret in the device",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Store(args[0], args[1])
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, fmt.Sprintf("Stored %q", args[0])); err != nil {
			fail(err)
		}
	},
}

var retrieveCmd = &cobra.Command{
	Use:     "retrieve <name>",
	Aliases: []string{"get"},
	Short:   "Retrieve a secret from the device",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Retrieve(args[0])
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, resp.Value); err != nil {
			fail(err)
		}
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a secret and erase its device slot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Delete(args[0])
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, fmt.Sprintf("Deleted %q", args[0])); err != nil {
			fail(err)
		}
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored secret names",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.List()
		if err != nil {
			fail(err)
		}
		text := "(no secrets stored)"
		if len(resp.Secrets) > 0 {
			text = strings.Join(resp.Secrets, "\n")
		}
		if err := printResponse(resp, text); err != nil {
			fail(err)
		}
	},
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <name> <value>",
	Short: "Replace a secret's value in place",
	Long: `Replace a secret's value in place.

Note: the device takes the same path as store, so rotating a name that
does not exist creates it rather than failing.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := authenticated()
		if err != nil {
			fail(err)
		}
		defer c.Close()

		resp, err := c.Rotate(args[0], args[1])
		if err != nil {
			fail(err)
		}
		if err := printResponse(resp, fmt.Sprintf("Rotated %q", args[0])); err != nil {
			fail(err)
		}
	},
}
