package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

func newMergeCmd(a *app) *cobra.Command {
	var (
		strategy  string
		threshold float64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "merge [point...]",
		Short: "Merge near-duplicate points",
		Long: `Merge near-duplicate critique points. Points come from the arguments or,
without arguments, from stdin one per line. Merged points are printed one
per line.`,
		Example: `  codesignbot merge "Low contrast" "Contrast is too low" "Too many steps"
  codesignbot merge --strategy jaccard < themes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := textsim.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be between 0 and 1, got %g", threshold)
			}
			if threshold == 0 {
				threshold = a.cfg.Merge.Threshold
				if s == textsim.JaccardMerge {
					threshold = a.cfg.Merge.JaccardThreshold
				}
			}

			points := args
			if len(points) == 0 {
				if points, err = readLines(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("reading points: %w", err)
				}
			}

			merged := textsim.NewMerger(s, threshold).Merge(points)
			a.logger.Debug("merged points", "strategy", s, "threshold", threshold, "in", len(points), "out", len(merged))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(merged)
			}
			for _, p := range merged {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(textsim.WeightedSimilarityMerge), "weighted or jaccard")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "merge above this score (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array")
	return cmd
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
