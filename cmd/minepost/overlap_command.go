package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"minepost/internal/segment"
)

func newOverlapCommand() *cobra.Command {
	var method string
	var all bool

	cmd := &cobra.Command{
		Use:   "overlap <start:length> <start:length>",
		Short: "Compute the overlap between two audio spans",
		Long: `Compute the overlap between two audio spans given in milliseconds.

The first span plays the role of the already kept span; only the
fraction_first method is sensitive to the order.`,
		Example:     "  minepost overlap 0:20 5:5\n  minepost overlap 0:1000 800:1000 --all",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseSpanArg(args[0])
			if err != nil {
				return err
			}
			b, err := parseSpanArg(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if all {
				rows := make([][]string, 0, len(segment.Methods()))
				for _, m := range segment.Methods() {
					rows = append(rows, []string{string(m), formatRatio(segment.Overlap(a, b, m))})
				}
				fmt.Fprintln(out, renderTable([]string{"Method", "Overlap"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			}

			m, err := segment.ParseOverlapMethod(method)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strconv.FormatFloat(segment.Overlap(a, b, m), 'f', -1, 64))
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(segment.MethodFraction), "Overlap measure: fraction, fraction_first, or iou")
	cmd.Flags().BoolVar(&all, "all", false, "Print the overlap under every method")
	return cmd
}

func parseSpanArg(value string) (segment.AudioSpan, error) {
	startText, lengthText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return segment.AudioSpan{}, fmt.Errorf("span %q: expected <start:length>", value)
	}
	start, err := strconv.ParseFloat(startText, 64)
	if err != nil {
		return segment.AudioSpan{}, fmt.Errorf("span %q: start: %w", value, err)
	}
	length, err := strconv.ParseFloat(lengthText, 64)
	if err != nil {
		return segment.AudioSpan{}, fmt.Errorf("span %q: length: %w", value, err)
	}
	if start < 0 || length < 0 {
		return segment.AudioSpan{}, fmt.Errorf("span %q: start and length must be >= 0", value)
	}
	return segment.AudioSpan{Start: start, Length: length}, nil
}
