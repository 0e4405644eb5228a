package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rv32im-prove",
		Short: "Execute, prove, and verify RV32IM Circle-STARK guests",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("verbose logging enabled")
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCommand())
	root.AddCommand(newProveCommand())
	root.AddCommand(newVerifyCommand())
	return root
}
