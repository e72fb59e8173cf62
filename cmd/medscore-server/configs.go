package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

var (
	titleColor   = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	overlapColor = color.New(color.FgRed, color.Bold)
)

var errOverlappingRanges = errors.New("catalog has overlapping result ranges")

func configsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Inspect the built-in scoring systems",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scoring systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeConfigList(cmd.OutOrStdout(), scoring.Default())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show the fields and result ranges of a scoring system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ok := scoring.Default().Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", scoring.ErrConfigNotFound, args[0])
			}
			return writeConfig(cmd.OutOrStdout(), cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check result ranges for gaps, overlaps and uncovered totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfigs(cmd.OutOrStdout(), scoring.Default())
		},
	})

	return cmd
}

func writeConfigList(w io.Writer, reg *scoring.Registry) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"ID", "Name", "Fields", "Method", "Result Ranges"})

	var rows [][]string
	for _, cfg := range reg.List() {
		bands := make([]string, len(cfg.ResultRanges))
		for i, r := range cfg.ResultRanges {
			bands[i] = fmt.Sprintf("%s %d-%d", r.Label, r.Min, r.Max)
		}
		rows = append(rows, []string{
			cfg.ID,
			cfg.Name,
			strconv.Itoa(len(cfg.Fields)),
			string(cfg.Calculation.Method),
			strings.Join(bands, ", "),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func writeConfig(w io.Writer, cfg *scoring.ScoreConfig) error {
	fmt.Fprintf(w, "%s (%s)\n", titleColor.Sprint(cfg.Name), cfg.ID)
	if cfg.Description != "" {
		fmt.Fprintln(w, cfg.Description)
	}
	fmt.Fprintln(w)

	fields := tablewriter.NewWriter(w)
	fields.Header([]string{"Field", "Label", "Type", "Required", "Unit", "Options"})
	var rows [][]string
	for _, f := range cfg.Fields {
		opts := make([]string, len(f.Options))
		for i, o := range f.Options {
			score := "-"
			if o.Score != nil {
				score = strconv.Itoa(*o.Score)
			}
			opts[i] = o.Value + "=" + score
		}
		typ := string(f.Type)
		if f.Type == scoring.FieldNumber {
			typ += "/" + string(f.EffectiveNumberType())
		}
		rows = append(rows, []string{f.ID, f.Label, typ, strconv.FormatBool(f.Required), f.Unit, strings.Join(opts, " ")})
	}
	if err := fields.Bulk(rows); err != nil {
		return err
	}
	if err := fields.Render(); err != nil {
		return err
	}
	_ = fields.Close()

	fmt.Fprintln(w)
	ranges := tablewriter.NewWriter(w)
	defer func() { _ = ranges.Close() }()
	ranges.Header([]string{"Min", "Max", "Label", "Description"})
	ranges.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	rows = rows[:0]
	for _, r := range cfg.ResultRanges {
		rows = append(rows, []string{strconv.Itoa(r.Min), strconv.Itoa(r.Max), r.Label, r.Description})
	}
	if err := ranges.Bulk(rows); err != nil {
		return err
	}
	return ranges.Render()
}

// checkConfigs prints coverage findings per config. Only overlaps make the
// check fail; gaps and uncovered totals classify as UnknownLabel.
func checkConfigs(w io.Writer, reg *scoring.Registry) error {
	overlaps := 0
	for _, cfg := range reg.List() {
		span := "unbounded"
		if lo, hi, ok := reg.AttainableRange(cfg); ok {
			span = fmt.Sprintf("%d-%d", lo, hi)
		}
		findings := reg.CheckCoverage(cfg)
		if len(findings) == 0 {
			fmt.Fprintf(w, "%s  %s (totals %s)\n", okColor.Sprint("ok"), cfg.ID, span)
			continue
		}
		fmt.Fprintf(w, "%s  %s (totals %s)\n", warnColor.Sprint("!!"), cfg.ID, span)
		for _, f := range findings {
			c := warnColor
			if f.Kind == scoring.FindingOverlap {
				c = overlapColor
				overlaps++
			}
			fmt.Fprintf(w, "    %s\n", c.Sprint(f.String()))
		}
	}
	if overlaps > 0 {
		return fmt.Errorf("%w (%d)", errOverlappingRanges, overlaps)
	}
	return nil
}
