package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circleproof/rv32im-stark/pkg/rv32imstark"
)

func newProveCommand() *cobra.Command {
	var elfPath, configPath, outPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Execute a guest ELF and produce a Circle-STARK proof of its trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			img, err := loadELFImage(elfPath)
			if err != nil {
				return err
			}

			result, err := rv32imstark.Prove(img, cfg)
			if err != nil {
				return err
			}
			log.Info().
				Int("steps", result.StepsExecuted).
				Int("num_queries", cfg.NumQueries).
				Msg("proof generated")

			var data []byte
			if asJSON {
				data, err = rv32imstark.EncodeProofJSON(result.Proof)
			} else {
				data, err = rv32imstark.EncodeProofBinary(result.Proof)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			log.Info().Str("path", outPath).Int("bytes", len(data)).Msg("proof written")
			return nil
		},
	}
	cmd.Flags().StringVar(&elfPath, "elf", "", "path to the guest ELF")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file (defaults to rv32imstark.DefaultConfig())")
	cmd.Flags().StringVar(&outPath, "out", "proof.bin", "output path for the serialized proof")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the debug JSON format instead of the binary format")
	_ = cmd.MarkFlagRequired("elf")
	return cmd
}
