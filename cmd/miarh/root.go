package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "miarh",
	Short: "Miarh - TLS-terminating edge gateway",
	Long: `Miarh terminates TLS for a set of virtual hosts and routes each request
either to static files on disk or to a backend process over a Unix socket.

It provides:
  - HTTPS termination with hot certificate reloading
  - Static asset serving with an in-memory brotli cache
  - Backend dispatch over length-prefixed Unix socket frames
  - HTTP to HTTPS redirects and ACME challenge serving
  - Prometheus metrics and health endpoints on an admin listener`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "miarh.yaml", "config file path")
}
