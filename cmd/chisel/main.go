// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// chisel serves a directory of static files, or proxies an upstream
// server, over its own HTTP/1.x framing engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	err := buildCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chisel",
		Short: "HTTP/1.x server built directly on raw stream sockets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&configFile, "config", "chisel.yaml", "path to yaml config file")
	return cmd
}
