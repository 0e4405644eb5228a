// Command rv32im-prove loads an RV32IM guest ELF, executes it, proves the
// resulting Circle-STARK trace, and verifies proofs produced this way.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("rv32im-prove failed")
	}
}
