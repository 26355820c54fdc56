package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	signer     string
	timeout    string

	rootCmd = &cobra.Command{
		Use:   "xccproxy",
		Short: "Forward greeting operations to a remote greeter",
		Long: `xccproxy dispatches each operation to the configured peer and
resolves it once the peer answered, to the peer's value or to a default.`,
		SilenceUsage: true,
	}

	servePeerCmd = &cobra.Command{
		Use:   "serve-peer",
		Short: "Run the reference greeter peer",
		Args:  cobra.NoArgs,
		RunE:  runServePeer,
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Store the proxy configuration, once",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}

	callCmd = &cobra.Command{
		Use:   "call <greeting|set-greeting|signer|current|predecessor> [message]",
		Short: "Run one proxy operation and print its result",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runCall,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the TOML configuration")
	callCmd.Flags().StringVar(&signer, "signer", "", "account signing the call, the proxy account by default")
	callCmd.Flags().StringVar(&timeout, "timeout", "10s", "how long to wait for the result")
	rootCmd.AddCommand(servePeerCmd, initCmd, callCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
