package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/LzzJustBeYou/MedScore/internal/domain/record"
	"github.com/LzzJustBeYou/MedScore/pkg/scoring"
)

func scoreCmd() *cobra.Command {
	var (
		dataFile string
		sets     []string
		strict   bool
	)
	cmd := &cobra.Command{
		Use:   "score <config>",
		Short: "Score a form from a JSON file and/or field=value pairs",
		Example: `  medscore-server score child-pugh --data form.json
  medscore-server score apache-ii --set age=70 --set oxygenation=normal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadForm(dataFile, sets)
			if err != nil {
				return err
			}
			svc := record.NewService(nil, scoring.Default(), strict, zerolog.Nop())
			out, err := svc.Score(cmd.Context(), args[0], data)
			if err != nil {
				return err
			}
			return writeScore(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&dataFile, "data", "", "JSON file with form values (- for stdin)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value, may be repeated")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unknown options, non-numeric input and unclassified totals")
	return cmd
}

// loadForm merges the JSON form in path with --set pairs; pairs win.
// Values from --set stay strings and are parsed by field type when scored.
func loadForm(path string, sets []string) (scoring.FormData, error) {
	data := scoring.FormData{}
	if path != "" {
		var (
			raw []byte
			err error
		)
		if path == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read form: %w", err)
		}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("parse form %s: %w", path, err)
		}
	}
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q, want field=value", kv)
		}
		data[strings.TrimSpace(k)] = v
	}
	return data, nil
}

func writeScore(w io.Writer, out *record.Outcome) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Field", "Label", "Value", "Score"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight}
	})

	rows := make([][]string, 0, len(out.Result.Breakdown))
	for _, s := range out.Result.Breakdown {
		label := s.FieldID
		if f, ok := out.Config.Field(s.FieldID); ok {
			label = f.Label
		}
		rows = append(rows, []string{s.FieldID, label, fmt.Sprint(out.Data[s.FieldID]), strconv.Itoa(s.Score)})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: %s\n", out.Config.Name, titleColor.Sprint(record.FormatScoreResult(out.Result)))
	if out.Result.Description != "" {
		fmt.Fprintln(w, out.Result.Description)
	}
	for _, iss := range out.Result.Warnings {
		fmt.Fprintf(w, "%s %s\n", warnColor.Sprint("warning:"), iss.String())
	}
	return nil
}
