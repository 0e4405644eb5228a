package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var elfPath, configPath string
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a guest ELF without proving it, printing its public output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			img, err := loadELFImage(elfPath)
			if err != nil {
				return err
			}

			steps := maxSteps
			if steps <= 0 {
				steps = cfg.TraceLen()
			}
			output, ran, err := runImage(img, cfg, steps)
			if err != nil {
				return err
			}
			log.Info().Int("steps", ran).Msg("execution finished")
			fmt.Printf("public output: %v\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&elfPath, "elf", "", "path to the guest ELF")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file (defaults to rv32imstark.DefaultConfig())")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "maximum steps to execute (defaults to the config's trace length)")
	_ = cmd.MarkFlagRequired("elf")
	return cmd
}
