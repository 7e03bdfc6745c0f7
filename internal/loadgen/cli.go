package loadgen

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/okian/jumper/pkg/logger"
)

// NewApp builds the score-load command.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "score-load",
		Usage: "submit fake TommyJumper scores and verify the leaderboard",
		// the caller decides how to exit
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: DefaultBaseURL, Usage: "base URL of the score service", EnvVars: []string{"SCORE_LOAD_URL"}},
			&cli.IntFlag{Name: "submissions", Aliases: []string{"n"}, Value: DefaultSubmissions, Usage: "number of scores to submit"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: DefaultWorkers, Usage: "concurrent submitters"},
			&cli.Float64Flag{Name: "rps", Value: DefaultRPS, Usage: "overall submissions per second, 0 for unlimited"},
			&cli.IntFlag{Name: "top", Value: DefaultTopN, Usage: "leaderboard size to fetch and check"},
			&cli.DurationFlag{Name: "timeout", Value: DefaultTimeout, Usage: "per-request timeout"},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed, 0 for random"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log progress and debug output"},
		},
		Before: func(c *cli.Context) error {
			if err := logger.Init(logger.WithOutput(c.App.ErrWriter)); err != nil {
				return err
			}
			if c.Bool("verbose") {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
		Action: func(c *cli.Context) error {
			stats, err := Run(c.Context, Config{
				BaseURL:     c.String("url"),
				Submissions: c.Int("submissions"),
				Workers:     c.Int("workers"),
				RPS:         c.Float64("rps"),
				TopN:        c.Int("top"),
				Timeout:     c.Duration("timeout"),
				Seed:        c.Uint64("seed"),
				Verbose:     c.Bool("verbose"),
			})
			if stats != nil {
				WriteSummary(c.App.Writer, stats)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("score-load: %v", err), exitCode(err))
			}
			return nil
		},
	}
}

func exitCode(err error) int {
	if IsVerificationError(err) {
		return 2
	}
	return 1
}
