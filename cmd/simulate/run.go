package main

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/playmatatu/pong/internal/config"
	"github.com/playmatatu/pong/internal/database"
	"github.com/playmatatu/pong/internal/game"
	"github.com/playmatatu/pong/internal/records"
)

var (
	flagLeft      string
	flagRight     string
	flagCount     int
	flagMaxTicks  int
	flagPredictMs int
	flagMaxScore  int
	flagVerify    bool
	flagRecord    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play AI-vs-AI matches",
	Long: `Play --count matches between a left and a right AI and print each result
and a summary. Match i uses seed+i.

With --verify every match is played twice and the final states compared.
With --record results are stored in the match history (DATABASE_URL).`,
	Args: cobra.NoArgs,
	RunE: runSimulations,
}

func init() {
	runCmd.Flags().StringVar(&flagLeft, "left", "medium", "Left AI difficulty (easy, medium, hard)")
	runCmd.Flags().StringVar(&flagRight, "right", "medium", "Right AI difficulty (easy, medium, hard)")
	runCmd.Flags().IntVarP(&flagCount, "count", "n", 1, "Number of matches")
	runCmd.Flags().IntVar(&flagMaxTicks, "max-ticks", 60*60*10, "Tick budget per match before it is abandoned")
	runCmd.Flags().IntVar(&flagPredictMs, "predict-ms", 1000, "AI prediction refresh interval in milliseconds")
	runCmd.Flags().IntVar(&flagMaxScore, "max-score", 0, "Override the points needed to win")
	runCmd.Flags().BoolVar(&flagVerify, "verify", false, "Replay each match and fail if the outcome differs")
	runCmd.Flags().BoolVar(&flagRecord, "record", false, "Store results in the match history database")
}

func runSimulations(cmd *cobra.Command, args []string) error {
	left, ok := game.ParseDifficulty(flagLeft)
	if !ok {
		return fmt.Errorf("unknown difficulty %q", flagLeft)
	}
	right, ok := game.ParseDifficulty(flagRight)
	if !ok {
		return fmt.Errorf("unknown difficulty %q", flagRight)
	}
	if flagCount <= 0 || flagMaxTicks <= 0 {
		return fmt.Errorf("--count and --max-ticks must be positive")
	}

	cfg, err := config.LoadGameConfigFile(flagConfigPath)
	if err != nil {
		return err
	}
	if flagMaxScore > 0 {
		cfg.MaxScore = flagMaxScore
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	predict := time.Duration(flagPredictMs) * time.Millisecond

	var store *records.Store
	if flagRecord {
		url := config.Load().DatabaseURL
		if url == "" {
			return fmt.Errorf("--record needs DATABASE_URL")
		}
		db, err := database.Connect(contextOf(cmd), url, 10*time.Second)
		if err != nil {
			return err
		}
		defer db.Close()
		store = records.NewStore(db, nil)
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSEED\tSCORE\tWINNER\tTICKS")

	var sum tally
	for i := 0; i < flagCount; i++ {
		s := seed + int64(i)
		res := simulate(uuid.NewString(), cfg, left, right, s, predict, flagMaxTicks)

		if flagVerify {
			again := simulate(res.ID, cfg, left, right, s, predict, flagMaxTicks)
			if !reflect.DeepEqual(res.Final, again.Final) {
				w.Flush()
				return fmt.Errorf("seed %d did not replay identically (tick %d vs %d)", s, res.Final.Tick, again.Final.Tick)
			}
		}

		if store != nil {
			if err := store.RecordMatch(contextOf(cmd), res.record(time.Now())); err != nil {
				w.Flush()
				return err
			}
		}

		winner := string(res.Winner)
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%d-%d\t%s\t%d\n", i+1, s, res.Final.Scores[leftID], res.Final.Scores[rightID], winner, res.Final.Tick)
		sum.add(res)
	}
	w.Flush()

	printSummary(out, sum, left, right, flagCount)
	return nil
}

func printSummary(out io.Writer, sum tally, left, right game.Difficulty, count int) {
	fmt.Fprintf(out, "\nleft %s won %d, right %s won %d, unfinished %d\n", left, sum.Left, right, sum.Right, sum.Unfinished)
	if count > 0 {
		avg := float64(sum.Ticks) / float64(count)
		fmt.Fprintf(out, "average length %.0f ticks (%.1fs at %d Hz)\n", avg, avg/game.ReferenceTickRate, game.ReferenceTickRate)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
