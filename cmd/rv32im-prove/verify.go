package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/circleproof/rv32im-stark/pkg/rv32imstark"
)

func newVerifyCommand() *cobra.Command {
	var proofPath, vkPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a Circle-STARK proof against a verification key",
		Long: "A verification key here is just the public config.Params the proof " +
			"was generated against; this protocol is transparent, so there is no " +
			"separate trusted-setup artifact to load.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(vkPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(proofPath)
			if err != nil {
				return fmt.Errorf("reading proof %s: %w", proofPath, err)
			}

			var pf *rv32imstark.Proof
			if asJSON {
				pf, err = rv32imstark.DecodeProofJSON(data)
			} else {
				pf, err = rv32imstark.DecodeProofBinary(data)
			}
			if err != nil {
				return fmt.Errorf("decoding proof %s: %w", proofPath, err)
			}

			if err := rv32imstark.Verify(pf, cfg); err != nil {
				log.Error().Err(err).Msg("proof rejected")
				return err
			}
			log.Info().Msg("proof accepted")
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to the serialized proof")
	cmd.Flags().StringVar(&vkPath, "vk", "", "path to the JSON verification key (config.Params); defaults to rv32imstark.DefaultConfig()")
	cmd.Flags().BoolVar(&asJSON, "json", false, "the proof is in the debug JSON format instead of binary")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}
