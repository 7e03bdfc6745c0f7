package loadgen

import (
	"errors"
	"time"
)

// Defaults used by the command line flags.
const (
	DefaultBaseURL     = "http://localhost:3112"
	DefaultSubmissions = 500
	DefaultWorkers     = 8
	DefaultRPS         = 200
	DefaultTopN        = 50
	DefaultTimeout     = 10 * time.Second
)

// Sentinel errors returned by Run.
var (
	ErrConfig    = errors.New("invalid load config")
	ErrUnhealthy = errors.New("service unhealthy")
	ErrOrdering  = errors.New("leaderboard out of order")
	ErrNoneSaved = errors.New("no submission was accepted")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // service base URL
	Submissions int           // scores to submit
	Workers     int           // concurrent submitters
	RPS         float64       // overall submit rate; 0 means unlimited
	TopN        int           // leaderboard size to fetch and check
	Timeout     time.Duration // per-request timeout
	Seed        uint64        // 0 picks a random seed
	Verbose     bool
}

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrConfig, errors.New("url is required"))
	case c.Submissions < 0:
		return errors.Join(ErrConfig, errors.New("submissions must not be negative"))
	case c.Workers <= 0:
		return errors.Join(ErrConfig, errors.New("workers must be positive"))
	case c.RPS < 0:
		return errors.Join(ErrConfig, errors.New("rps must not be negative"))
	case c.TopN <= 0:
		return errors.Join(ErrConfig, errors.New("top must be positive"))
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// Submission is the body posted to /submit-score.
type Submission struct {
	PlayerName   string `json:"player_name"`
	Score        int    `json:"score"`
	Level        int    `json:"level"`
	GameDuration int    `json:"game_duration"`
}

// Stats summarizes a run.
type Stats struct {
	Seed          uint64
	Generated     int
	Submitted     int
	Accepted      int
	Rejected      int // 4xx other than 429
	Throttled     int // 429
	Failed        int // transport errors and 5xx
	CountBefore   int
	CountAfter    int
	TopFetched    int
	TopScore      int
	MaxSubmitted  int
	CountMismatch bool
	Duration      time.Duration
}

// SubmitRate is submissions per second over the whole run.
func (s *Stats) SubmitRate() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}
