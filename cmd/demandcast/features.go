package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/demandcast/calendar"
	"github.com/aouyang1/demandcast/timedataset"
	"github.com/spf13/cobra"
)

func featuresCmd() *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the derived calendar features of a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printFeatures(cmd.OutOrStdout(), start, end)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func printFeatures(w io.Writer, start, end string) error {
	first, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return fmt.Errorf("invalid start date, %w", err)
	}
	last, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return fmt.Errorf("invalid end date, %w", err)
	}
	dates, err := timedataset.DailyRange(first, last)
	if err != nil {
		return err
	}
	frame, err := calendar.DeriveFeatures(dates)
	if err != nil {
		return err
	}

	cols := make([][]float64, 0, len(calendar.Columns))
	for _, name := range calendar.Columns {
		col, err := frame.Column(name)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(tbl, "date\t")
	for _, name := range calendar.Columns {
		fmt.Fprintf(tbl, "%s\t", name)
	}
	fmt.Fprintln(tbl)
	for i, d := range frame.T {
		fmt.Fprintf(tbl, "%s\t", d.Format(time.DateOnly))
		for _, col := range cols {
			fmt.Fprintf(tbl, "%.0f\t", col[i])
		}
		fmt.Fprintln(tbl)
	}
	return tbl.Flush()
}
