package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/circleproof/rv32im-stark/pkg/rv32imstark"
)

// loadConfig reads a JSON-encoded rv32imstark.Config from path, or returns
// rv32imstark.DefaultConfig() if path is empty.
func loadConfig(path string) (*rv32imstark.Config, error) {
	if path == "" {
		return rv32imstark.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := rv32imstark.DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func loadELFImage(path string) (*rv32imstark.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ELF %s: %w", path, err)
	}
	defer f.Close()
	return rv32imstark.LoadELF(f)
}

func runImage(img *rv32imstark.Image, cfg *rv32imstark.Config, maxSteps int) ([]uint32, int, error) {
	return rv32imstark.Run(img, cfg, maxSteps)
}
