package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lsmtools/foresight/predictor"
)

// runnerConfig is the JSON file format: both sections optional, missing
// ones fall back to defaults.
type runnerConfig struct {
	Predictor *predictor.Config          `json:"predictor,omitempty"`
	Generator *predictor.GeneratorConfig `json:"generator,omitempty"`
}

type roundResult struct {
	Round     int      `json:"round"`
	Predicted []uint64 `json:"predicted"`
}

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to JSON configuration file (optional, defaults used if omitted)")
	rounds := flag.Int("rounds", 100, "Number of prediction rounds to run")
	seed := flag.Int64("seed", 0, "Generator seed override (0 keeps the config's seed)")
	outputFile := flag.String("output", "", "Path to output JSON file (optional, prints to stdout if not specified)")
	verbose := flag.Bool("verbose", false, "Log each round to stderr")
	flag.Parse()

	cfg := predictor.DefaultConfig()
	genCfg := predictor.DefaultGeneratorConfig()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
		var rc runnerConfig
		if err := json.Unmarshal(data, &rc); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config JSON: %v\n", err)
			os.Exit(1)
		}
		if rc.Predictor != nil {
			cfg = *rc.Predictor
		}
		if rc.Generator != nil {
			genCfg = *rc.Generator
		}
	}
	if *seed != 0 {
		genCfg.Seed = *seed
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	pred, err := predictor.New(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating predictor: %v\n", err)
		os.Exit(1)
	}
	gen, err := predictor.NewSnapshotGenerator(genCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating generator: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Running %d prediction rounds...\n", *rounds)
	startTime := time.Now()

	ctx := context.Background()
	perRound := make([]roundResult, 0, *rounds)
	for i := 0; i < *rounds; i++ {
		snap := gen.Generate()
		ids := pred.Predict(ctx, snap)
		perRound = append(perRound, roundResult{Round: i, Predicted: ids})
		if *verbose {
			fmt.Fprintf(os.Stderr, "[ROUND %d] %d files predicted\n", i, len(ids))
		}
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Completed in %v\n", elapsed)

	results := map[string]interface{}{
		"config":    cfg,
		"generator": genCfg,
		"realTime":  elapsed.Seconds(),
		"stats":     pred.Stats(),
		"ledger":    pred.LedgerSnapshot(),
		"rounds":    perRound,
	}

	output, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}
