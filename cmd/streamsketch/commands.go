package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jcalabro/streamsketch"
)

func newBloomCmd(a *app) *cobra.Command {
	var (
		capacity  uint64
		rate      float64
		trainPath string
		queryPath string
	)

	cmd := &cobra.Command{
		Use:   "bloom",
		Short: "Build a Bloom filter from the train lines and test the query lines",
		Long: "Build a Bloom filter from every line of --train, then report for each line of\n" +
			"--query (stdin when omitted) whether it is possibly or definitely not a member.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trainPath == "-" && queryPath == "-" {
				return errors.New("--train and --query cannot both read stdin")
			}
			if cmd.Flags().Changed("capacity") {
				a.cfg.Bloom.Capacity = capacity
			}
			if cmd.Flags().Changed("rate") {
				a.cfg.Bloom.FalsePositiveRate = rate
			}

			opts, err := a.cfg.Hash.Options()
			if err != nil {
				return err
			}
			f, err := streamsketch.New(a.cfg.Bloom.Capacity, a.cfg.Bloom.FalsePositiveRate, opts...)
			if err != nil {
				return fmt.Errorf("failed to build filter: %w", err)
			}

			if err := readLines(trainPath, cmd.InOrStdin(), f.AddString); err != nil {
				return fmt.Errorf("failed to read train lines: %w", err)
			}
			a.log.Info("filter built",
				zap.Uint64("capacity", f.Capacity()),
				zap.Float64("target_fp_rate", f.FalsePositiveRate()),
				zap.Uint64("bits", f.Cap()),
				zap.Uint32("k", f.K()),
				zap.Uint64("added", f.Count()),
				zap.Float64("fill_ratio", f.EstimatedFillRatio()),
				zap.Float64("estimated_fp_rate", f.EstimatedFalsePositiveRate()),
			)
			if f.Count() > f.Capacity() {
				a.log.Warn("filter holds more items than its capacity; false positive rate exceeds target",
					zap.Uint64("added", f.Count()),
					zap.Uint64("capacity", f.Capacity()),
				)
			}

			out := cmd.OutOrStdout()
			return readLines(queryPath, cmd.InOrStdin(), func(line string) {
				verdict := "definitely not present"
				if f.ContainsString(line) {
					verdict = "probably present"
				}
				fmt.Fprintf(out, "%s\t%s\n", line, verdict)
			})
		},
	}

	cmd.Flags().Uint64Var(&capacity, "capacity", 0, "expected number of inserted lines (overrides config)")
	cmd.Flags().Float64Var(&rate, "rate", 0, "target false positive rate in (0, 1) (overrides config)")
	cmd.Flags().StringVar(&trainPath, "train", "", "file whose lines are added to the filter")
	cmd.Flags().StringVar(&queryPath, "query", "-", "file whose lines are tested, - for stdin")
	_ = cmd.MarkFlagRequired("train")

	return cmd
}

func newDistinctCmd(a *app) *cobra.Command {
	var hashes, groups int

	cmd := &cobra.Command{
		Use:   "distinct [file]",
		Short: "Estimate the number of distinct lines",
		Long: "Feed every line of the file (stdin when omitted) into a single-hash and a\n" +
			"multi-hash Flajolet-Martin counter and print their estimates next to the exact count.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("hashes") {
				a.cfg.Distinct.Hashes = hashes
			}
			if cmd.Flags().Changed("groups") {
				a.cfg.Distinct.Groups = groups
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			opts, err := a.cfg.Hash.Options()
			if err != nil {
				return err
			}
			fm1 := streamsketch.NewFM1(opts...)
			fmst, err := streamsketch.NewFMst(a.cfg.Distinct.Hashes, a.cfg.Distinct.Groups, opts...)
			if err != nil {
				return fmt.Errorf("failed to build counter: %w", err)
			}

			exact := make(map[string]struct{})
			var lines int
			err = readLines(path, cmd.InOrStdin(), func(line string) {
				fm1.AddString(line)
				fmst.AddString(line)
				exact[line] = struct{}{}
				lines++
			})
			if err != nil {
				return fmt.Errorf("failed to read lines: %w", err)
			}
			a.log.Info("stream consumed",
				zap.Int("lines", lines),
				zap.Int("hashes", fmst.M()),
				zap.Int("groups", fmst.G()),
				zap.Uint8("fm1_r", fm1.R()),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "exact\t%d\n", len(exact))
			fmt.Fprintf(out, "fm1\t%.0f\n", fm1.Estimate())
			fmt.Fprintf(out, "median-of-means\t%.0f\n", fmst.EstimateMedianOfMeans())
			fmt.Fprintf(out, "mean-of-medians\t%.0f\n", fmst.EstimateMeanOfMedians())
			return nil
		},
	}

	cmd.Flags().IntVar(&hashes, "hashes", 0, "number of derived hash functions m (overrides config)")
	cmd.Flags().IntVar(&groups, "groups", 0, "number of aggregation groups g (overrides config)")

	return cmd
}

// readLines calls fn with every line of the file at path, or of stdin when
// path is "-".
func readLines(path string, stdin io.Reader, fn func(string)) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fn(sc.Text())
	}
	return sc.Err()
}
