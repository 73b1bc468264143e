// simulate runs headless AI-vs-AI pong matches on virtual time.
//
// Usage:
//
//	simulate run      - Play matches and print the results
//	simulate config   - Print the effective game configuration as YAML
//
// Global flags:
//
//	--config <path>  - YAML game configuration (default: built-in board)
//	--seed <value>   - RNG seed for the first match (0 = time based)
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfigPath string
	flagSeed       int64
)

func main() {
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Headless AI-vs-AI pong matches",
	Long: `simulate plays matches between two AI opponents without a network or a
real clock. Use it to tune difficulty profiles, to check that a seed always
replays the same match, or to seed the match history with sample data.

Examples:
  simulate run --left hard --right easy --count 20
  simulate run --seed 42 --verify
  simulate run --record
  simulate config --config game.yaml`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", os.Getenv("GAME_CONFIG_PATH"), "Path to a YAML game configuration")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}
