package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/fixtures"
	"tamio-engine/internal/money"
	"tamio-engine/internal/reporting"
)

var (
	flagMaxFixes int
	flagCSV      bool
	flagLayers   []string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Build the decision queue with fixes, danger zone and insights",
	Args:  cobra.NoArgs,
	RunE:  runQueue,
}

var dangerZoneCmd = &cobra.Command{
	Use:   "danger-zone",
	Short: "Show the weeks below the cash buffer",
	Args:  cobra.NoArgs,
	RunE:  runDangerZone,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "List forecast chart insights",
	Args:  cobra.NoArgs,
	RunE:  runInsights,
}

var fixesCmd = &cobra.Command{
	Use:   "fixes RISK_ID",
	Short: "Rank fixes for one risk",
	Args:  cobra.ExactArgs(1),
	RunE:  runFixes,
}

var compareCmd = &cobra.Command{
	Use:   "compare SCENARIO_FILE",
	Short: "Compare a scenario (JSON) against the base forecast",
	Long: "Compare a scenario against the base forecast and evaluate every financial rule.\n" +
		"Each --layer FILE is a layer JSON applied in order after the scenario.",
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Print the built-in demo dataset as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeJSON(cmd.OutOrStdout(), fixtures.Demo())
	},
}

func init() {
	queueCmd.Flags().IntVar(&flagMaxFixes, "max-fixes", 0, "Fixes per risk (0 uses MAX_FIXES)")
	fixesCmd.Flags().IntVar(&flagMaxFixes, "max", 0, "Maximum fixes (0 uses MAX_FIXES)")
	compareCmd.Flags().BoolVar(&flagCSV, "csv", false, "Write the week-by-week comparison as CSV")
	compareCmd.Flags().StringSliceVar(&flagLayers, "layer", nil, "Layer JSON file, repeatable")

	rootCmd.AddCommand(queueCmd, dangerZoneCmd, insightsCmd, fixesCmd, compareCmd, demoCmd)
}

func runQueue(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}

	gen := reporting.NewGenerator(svc).WithParams(flagMaxFixes, flagWeeks, flagPolicy)
	r, err := gen.Generate(ctx, flagUser)
	if err != nil {
		return err
	}

	if flagFormat == formatJSON {
		return writeJSON(cmd.OutOrStdout(), r)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), reporting.RenderMarkdown(r))
	return err
}

func runDangerZone(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	dz, err := svc.DangerZone(ctx, flagUser, flagWeeks, flagPolicy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagFormat == formatJSON {
		return writeJSON(out, map[string]any{"danger_zone": dz})
	}
	if dz == nil {
		fmt.Fprintln(out, "No danger zone: cash stays above the buffer.")
		return nil
	}
	fmt.Fprintf(out, "Danger zone: weeks %d-%d (%s below buffer)\n",
		dz.StartWeek, dz.EndWeek, english.Plural(len(dz.BelowBufferWeeks), "week", "weeks"))
	fmt.Fprintf(out, "Buffer:       %s\n", money.Format(dz.BufferAmount))
	fmt.Fprintf(out, "Lowest point: %s in week %d\n", money.Format(dz.LowestPoint.Amount), dz.LowestPoint.Week)
	return nil
}

func runInsights(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	insights, err := svc.Insights(ctx, flagUser, flagWeeks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagFormat == formatJSON {
		return writeJSON(out, insights)
	}
	if len(insights) == 0 {
		fmt.Fprintln(out, "No insights.")
		return nil
	}
	for _, in := range insights {
		fmt.Fprintf(out, "week %-3d %-12s %s\n           %s\n", in.WeekIndex+1, in.Type, in.Title, in.Description)
	}
	return nil
}

func runFixes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	recs, err := svc.Fixes(ctx, args[0], flagMaxFixes)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagFormat == formatJSON {
		return writeJSON(out, recs)
	}
	for i, r := range recs {
		fmt.Fprintf(out, "%d. %s [%s] %s\n   %s\n", i+1, r.Title, r.Type, r.BufferImprovement, r.Description)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}

	var sc domain.Scenario
	if err := readJSONFile(args[0], &sc); err != nil {
		return err
	}
	if sc.UserID == "" {
		sc.UserID = flagUser
	}
	for _, path := range flagLayers {
		var layer domain.ScenarioLayer
		if err := readJSONFile(path, &layer); err != nil {
			return err
		}
		sc = sc.WithLayer(layer)
	}

	cmp, err := svc.CompareScenario(ctx, sc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case flagCSV:
		_, err = io.WriteString(out, reporting.RenderComparisonCSV(cmp))
	case flagFormat == formatJSON:
		err = writeJSON(out, cmp)
	default:
		_, err = io.WriteString(out, reporting.RenderComparisonMarkdown(cmp))
	}
	return err
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
