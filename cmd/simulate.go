package main

import (
	"errors"

	service "github.com/okian/skatepark/internal/app"
	"github.com/okian/skatepark/internal/domain/catalog"
	"github.com/okian/skatepark/internal/domain/progression"
	"github.com/okian/skatepark/internal/domain/session"
	"github.com/okian/skatepark/internal/domain/types"
	"github.com/okian/skatepark/pkg/logger"
	"github.com/okian/skatepark/pkg/metrics"
	"github.com/spf13/cobra"
)

// simulation is what `simulate` prints.
type simulation struct {
	Summary    types.Summary      `json:"summary" yaml:"summary"`
	LandRate   float64            `json:"landRate" yaml:"landRate"`
	Standings  []session.Standing `json:"standings" yaml:"standings"`
	Candidates []string           `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// runFlags are shared by simulate and batch.
type runFlags struct {
	seed    uint64
	kind    string
	tier    string
	sport   string
	skaters int
	format  string
}

func (f *runFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "Random seed")
	cmd.Flags().StringVar(&f.kind, "kind", string(session.Normal), "Session kind: beginner or normal")
	cmd.Flags().StringVar(&f.tier, "tier", string(progression.Beginner), "Skater tier: beginner, medium or pro")
	cmd.Flags().StringVar(&f.sport, "sport", "", "Sport of every skater, mixed when empty")
	cmd.Flags().IntVar(&f.skaters, "skaters", 0, "Skaters per session, park capacity when 0")
	cmd.Flags().StringVarP(&f.format, "output", "o", "json", "Output format: json or yaml")
}

func (f *runFlags) parse() (session.Kind, progression.Tier, error) {
	kind, err := session.ParseKind(f.kind)
	if err != nil {
		return "", "", err
	}
	tier, err := progression.ParseTier(f.tier)
	if err != nil {
		return "", "", err
	}
	return kind, tier, nil
}

// newService builds a service for one-shot commands. The archive and the
// leaderboard are never touched by standalone runs.
func (c *cli) newService() (*service.Service, error) {
	cfg := *c.cfg
	cfg.ArchivePath = ""
	return service.NewFromConfig(&cfg, logger.Named("skatepark"), metrics.Default())
}

func (c *cli) newSimulateCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one seeded session to the end and print its result",
		Example: `  skatepark simulate --seed 42 --tier pro
  skatepark simulate --kind beginner --skaters 4 -o yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, tier, err := f.parse()
			if err != nil {
				return err
			}
			svc, err := c.newService()
			if err != nil {
				return err
			}
			defer svc.Stop()

			res, err := svc.Simulate(cmd.Context(), service.SimulateRequest{
				Seed:    f.seed,
				Kind:    kind,
				Tier:    tier,
				Sport:   catalog.Sport(f.sport),
				Skaters: f.skaters,
			})
			if err != nil {
				return err
			}
			out := simulation{
				Summary:   res.Summary,
				LandRate:  res.Summary.LandRate(),
				Standings: res.State.Scoreboard(),
			}
			for _, sk := range res.State.Candidates() {
				out.Candidates = append(out.Candidates, sk.Name)
			}
			return render(cmd.OutOrStdout(), f.format, out)
		},
	}
	f.bind(cmd)
	return cmd
}

func (c *cli) newBatchCmd() *cobra.Command {
	var (
		f       runFlags
		runs    int
		workers int
	)
	cmd := &cobra.Command{
		Use:     "batch",
		Short:   "Run many seeded sessions on a worker pool and print aggregates",
		Example: `  skatepark batch --runs 1000 --workers 8 --tier medium`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runs < 1 {
				return errors.New("--runs must be positive")
			}
			kind, tier, err := f.parse()
			if err != nil {
				return err
			}
			svc, err := c.newService()
			if err != nil {
				return err
			}
			defer svc.Stop()

			rep, err := svc.Batch(cmd.Context(), service.BatchRequest{
				Runs:    runs,
				Workers: workers,
				Seed:    f.seed,
				Kind:    kind,
				Tier:    tier,
				Sport:   catalog.Sport(f.sport),
				Skaters: f.skaters,
			})
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), f.format, rep)
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&runs, "runs", 100, "Number of sessions")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines, batch_workers when 0")
	return cmd
}
