// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/literary-wheel/cliparse"
	"github.com/danielhkuo/literary-wheel/wheel"
)

type simulateOptions struct {
	cabins     int
	spins      int
	minHold    time.Duration
	maxHold    time.Duration
	seed       uint64
	snap       bool
	carry      bool
	policyFile string
	out        string
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Check how evenly the wheel picks cards",
		Long: `Spins a wheel many times with random hold durations and reports how often
each cabin was picked, with a chi-square statistic and the largest relative
deviation from a uniform pick. The report is YAML.`,
		Example: `  # 10k spins on a 6-card wheel, snapping on
  literary-wheel simulate --cabins 6 --spins 10000 --snap

  # Every spin from a fresh wheel, written to a file
  literary-wheel simulate --carry=false --out report.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.out != "" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("create report: %w", err)
				}
				defer f.Close()
				out = f
			}
			return runSimulate(opts, out)
		},
	}

	cmd.Flags().IntVar(&opts.cabins, "cabins", cliparse.DefaultMinCards, "Number of cards on the wheel")
	cmd.Flags().IntVar(&opts.spins, "spins", 1000, "Number of spins")
	cmd.Flags().DurationVar(&opts.minHold, "min-hold", 300*time.Millisecond, "Shortest press")
	cmd.Flags().DurationVar(&opts.maxHold, "max-hold", 3*time.Second, "Longest press")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "Random seed")
	cmd.Flags().BoolVar(&opts.snap, "snap", false, "Snap the stopped wheel to a cabin boundary")
	cmd.Flags().BoolVar(&opts.carry, "carry", true, "Keep the wheel's angle between spins")
	cmd.Flags().StringVar(&opts.policyFile, "policy", "", "YAML policy file for wheel tuning")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the report here instead of stdout")

	return cmd
}

func runSimulate(opts simulateOptions, out io.Writer) error {
	policy := cliparse.DefaultPolicy()
	if opts.policyFile != "" {
		p, err := cliparse.LoadPolicyFile(opts.policyFile)
		if err != nil {
			return err
		}
		policy = p
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	cfg := policy.WheelConfig()
	cfg.Snap = cfg.Snap || opts.snap

	report, err := wheel.Simulate(cfg, wheel.FairnessOptions{
		Cabins:     opts.cabins,
		Spins:      opts.spins,
		MinHold:    opts.minHold,
		MaxHold:    opts.maxHold,
		FrameHz:    policy.Wheel.FrameHz,
		CarryAngle: opts.carry,
	}, rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15)))
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}
