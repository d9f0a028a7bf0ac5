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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-avp/pkg/client"
)

// printResponse renders a device response in the selected output format.
// In text mode only the lines relevant to the operation are printed; JSON
// mode emits the full response object.
func printResponse(resp *client.Response, lines ...string) error {
	if viper.GetString("output") == "json" {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

// fail prints an error to stderr and exits non-zero.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
