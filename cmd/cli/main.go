package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"evpi/adapters/excel"
	"evpi/adapters/model/logit"
	"evpi/adapters/postgres"
	"evpi/adapters/rng"
	"evpi/app"
	"evpi/domain/core"
	"evpi/domain/dataset"
	"evpi/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "evpi",
		Short: "Expected value of perfect information for risk prediction models",
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTablesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		dataFile   string
		table      string
		outcome    string
		iterations int
		thresholds int
		gridMax    float64
		strategy   string
		seed       int64
		workers    int
		ceiling    float64
		reportAt   float64
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Monte Carlo EVPI simulation against a dataset",
		Long: `Run the bootstrap-based EVPI simulation across a grid of decision
thresholds and report expected net benefit, EVPI, incremental net benefit
and relative EVPI curves.

Example: evpi run --data gusto.csv --outcome day30 --iterations 1000 --strategy case_resampling --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyDefaults(cfg, &dataFile, &outcome, &iterations, &thresholds, &gridMax, &strategy, &seed, &workers, &ceiling)

			ds, err := loadDataset(cmd.Context(), cfg, dataFile, table, outcome)
			if err != nil {
				return err
			}

			service := app.NewEVPIService(logit.NewFitter(), rng.NewAdapter(), workers)
			result, err := service.Run(cmd.Context(), app.RunRequest{
				Dataset:    ds,
				Iterations: iterations,
				Thresholds: thresholds,
				GridMax:    gridMax,
				Strategy:   strategy,
				Seed:       seed,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printResult(result, ceiling, reportAt)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data", "", "Dataset file (.xlsx or .csv); defaults to DATA_FILE")
	cmd.Flags().StringVar(&table, "table", "", "Postgres table to load instead of a file (requires DATABASE_URL)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Binary outcome column name; defaults to OUTCOME_COLUMN")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Monte Carlo iterations")
	cmd.Flags().IntVar(&thresholds, "thresholds", 0, "Number of equally spaced thresholds")
	cmd.Flags().Float64Var(&gridMax, "grid-max", 0, "Largest threshold in the grid")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Sampling strategy: case_resampling, likelihood, bayesian_bootstrap")
	cmd.Flags().Int64Var(&seed, "seed", -1, "Random seed for reproducible runs")
	cmd.Flags().IntVar(&workers, "workers", -1, "Worker count (0 = GOMAXPROCS)")
	cmd.Flags().Float64Var(&ceiling, "ceiling", 0, "Display ceiling for relative EVPI")
	cmd.Flags().Float64Var(&reportAt, "report-at", 0.2, "Threshold to highlight in the report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full result as JSON")

	return cmd
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List database tables available as dataset sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			db, err := postgres.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			tables, err := postgres.NewDatasetRepository(db).ListTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, table := range tables {
				fmt.Println(table)
			}
			return nil
		},
	}
}

// applyDefaults fills unset flags from the environment-backed config
func applyDefaults(cfg *config.Config, dataFile, outcome *string, iterations, thresholds *int, gridMax *float64, strategy *string, seed *int64, workers *int, ceiling *float64) {
	if *dataFile == "" {
		*dataFile = cfg.Data.File
	}
	if *outcome == "" {
		*outcome = cfg.Data.OutcomeColumn
	}
	if *iterations == 0 {
		*iterations = cfg.Simulation.Iterations
	}
	if *thresholds == 0 {
		*thresholds = cfg.Simulation.Thresholds
	}
	if *gridMax == 0 {
		*gridMax = cfg.Simulation.GridMax
	}
	if *strategy == "" {
		*strategy = cfg.Simulation.Strategy
	}
	if *seed < 0 {
		*seed = cfg.Simulation.Seed
	}
	if *workers < 0 {
		*workers = cfg.Simulation.Workers
	}
	if *ceiling == 0 {
		*ceiling = cfg.Simulation.RatioCeiling
	}
}

func loadDataset(ctx context.Context, cfg *config.Config, dataFile, table, outcome string) (*dataset.Dataset, error) {
	outcomeKey := core.ColumnKey(outcome)
	switch {
	case table != "":
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return postgres.NewDatasetRepository(db).LoadTable(ctx, table, outcomeKey)
	case dataFile != "":
		return excel.NewDataReader(dataFile).ReadDataset(ctx, outcomeKey)
	default:
		return nil, fmt.Errorf("a dataset is required: pass --data or --table")
	}
}

func printResult(result *app.RunResult, ceiling, reportAt float64) {
	capped := result.Relative.Capped(ceiling)

	fmt.Printf("Run %s (%s, %d iterations, %d thresholds)\n",
		result.RunID, result.Strategy, result.Curves.Iterations, len(result.Grid))
	fmt.Printf("Prevalence %.3f, elapsed %v\n\n", result.Summary.Prevalence, result.Elapsed)

	fmt.Println("  z      ENB_model  ENB_all    ENB_max    EVPI       INB_cur    INB_perf   relEVPI  flag")
	fmt.Println(strings.Repeat("-", 96))

	highlight := result.Grid.IndexOf(reportAt)
	step := len(result.Grid) / 20
	if step < 1 {
		step = 1
	}
	for i := range result.Grid {
		if i%step != 0 && i != highlight {
			continue
		}
		marker := " "
		if i == highlight {
			marker = "*"
		}
		fmt.Printf("%s %.3f  %9.5f  %9.5f  %9.5f  %9.5f  %9.5f  %9.5f  %7.3f  %s\n",
			marker, result.Grid[i],
			result.Curves.Model[i], result.Curves.All[i], result.Curves.Max[i],
			result.Derived.EVPI[i], result.Derived.INBCurrent[i], result.Derived.INBPerfect[i],
			capped[i], result.Relative[i].Flag)
	}

	fmt.Printf("\nMax EVPI %.5f at z=%.3f; median EVPI %.5f; mean MC stderr %.6f\n",
		result.Summary.MaxEVPI, result.Summary.MaxEVPIThreshold,
		result.Summary.MedianEVPI, result.Summary.MeanModelStdErr)
}
