package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aouyang1/demandcast/config"
	"github.com/aouyang1/demandcast/forecast"
	"github.com/aouyang1/demandcast/logging"
	"github.com/aouyang1/demandcast/service"
	"github.com/aouyang1/demandcast/tabular"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

type runFlags struct {
	train        string
	test         string
	targets      []string
	features     []string
	featuresData string
	start        string
	end          string
	coverage     *float64
	plotDir      string
	metrics      bool
}

// runOutput is the json document printed by the run command
type runOutput struct {
	Model      *service.Description         `json:"model"`
	Forecasts  map[string]*service.Forecast `json:"forecasts"`
	TestScores map[string]forecast.Scores   `json:"test_scores,omitempty"`
}

func runCmd() *cobra.Command {
	var (
		flags    runFlags
		coverage float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit a parquet table and forecast a date range",
		Long: `Fits one forecast per target column of the training parquet table and prints the
forecast of every target from start to end inclusive as json. Without --features the
regressors are calendar features derived from the dates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("coverage") {
				flags.coverage = &coverage
			}
			if profileDir != "" {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(profileDir), profile.Quiet).Stop()
			}
			return run(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.train, "train", "", "Training parquet file")
	cmd.Flags().StringVar(&flags.test, "test", "", "Held out parquet file to score the forecasts against")
	cmd.Flags().StringSliceVar(&flags.targets, "targets", nil, "Target columns to forecast")
	cmd.Flags().StringSliceVar(&flags.features, "features", nil, "Regressor columns of the training table")
	cmd.Flags().StringVar(&flags.featuresData, "features-data", "", "Json file mapping each regressor to its horizon values")
	cmd.Flags().StringVar(&flags.start, "start", "", "First forecast date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.end, "end", "", "Last forecast date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&coverage, "coverage", 0, "Prediction interval coverage in [0, 1], defaults to the configured coverage")
	cmd.Flags().StringVar(&flags.plotDir, "plot-dir", "", "Write an html plot per target to this directory")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "Print the service metrics to stderr")
	for _, name := range []string{"train", "targets", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func run(ctx context.Context, w io.Writer, flags runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opt, err := service.NewOptionsFromConfig(cfg, reg, logger)
	if err != nil {
		return err
	}
	svc, err := service.New(opt)
	if err != nil {
		return err
	}

	req, err := predictRequest(flags)
	if err != nil {
		return err
	}

	trainData, err := os.ReadFile(flags.train)
	if err != nil {
		return fmt.Errorf("unable to read training table, %w", err)
	}
	if err := svc.Fit(ctx, trainData, flags.targets, flags.features); err != nil {
		return fmt.Errorf("fit failed (%s), %w", service.Kind(err), err)
	}

	forecasts, err := svc.Predict(ctx, req)
	if err != nil {
		return fmt.Errorf("predict failed (%s), %w", service.Kind(err), err)
	}

	desc, err := svc.Describe()
	if err != nil {
		return err
	}
	out := runOutput{
		Model:     desc,
		Forecasts: forecasts,
	}

	if flags.test != "" {
		testData, err := os.ReadFile(flags.test)
		if err != nil {
			return fmt.Errorf("unable to read test table, %w", err)
		}
		testFrame, err := tabular.Decode(ctx, testData, &tabular.Options{IndexColumn: cfg.Table.IndexColumn})
		if err != nil {
			return fmt.Errorf("unable to decode test table, %w", err)
		}
		out.TestScores, err = svc.Evaluate(ctx, testFrame)
		if err != nil {
			return fmt.Errorf("evaluate failed (%s), %w", service.Kind(err), err)
		}
	}

	if flags.plotDir != "" {
		if err := writePlots(svc, flags.plotDir, flags.targets, req); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if flags.metrics {
		return writeMetrics(os.Stderr, reg)
	}
	return nil
}

func predictRequest(flags runFlags) (service.PredictRequest, error) {
	var req service.PredictRequest
	start, err := time.Parse(time.DateOnly, flags.start)
	if err != nil {
		return req, fmt.Errorf("invalid start date, %w", err)
	}
	end, err := time.Parse(time.DateOnly, flags.end)
	if err != nil {
		return req, fmt.Errorf("invalid end date, %w", err)
	}
	req.Start = start
	req.End = end
	req.Coverage = flags.coverage

	if flags.featuresData != "" {
		data, err := os.ReadFile(flags.featuresData)
		if err != nil {
			return req, fmt.Errorf("unable to read features data, %w", err)
		}
		if err := json.Unmarshal(data, &req.FeaturesData); err != nil {
			return req, fmt.Errorf("unable to decode features data, %w", err)
		}
	}
	return req, nil
}

func writePlots(svc *service.Service, dir string, targets []string, req service.PredictRequest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, target := range targets {
		f, err := os.Create(filepath.Join(dir, target+".html"))
		if err != nil {
			return err
		}
		if err := svc.Plot(f, target, req); err != nil {
			f.Close()
			return fmt.Errorf("unable to plot %q, %w", target, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
