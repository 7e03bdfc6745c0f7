package loadgen

import (
	"fmt"
	"io"
	"time"

	"github.com/okian/jumper/internal/domain/model"
)

// verifyOrdering checks the page is sorted by score, highest first.
func verifyOrdering(top []model.Score) error {
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			return fmt.Errorf("%w: entry %d (%d) outranks entry %d (%d)",
				ErrOrdering, i, top[i].Score, i-1, top[i-1].Score)
		}
	}
	seen := make(map[int64]struct{}, len(top))
	for _, s := range top {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: id %d listed twice", ErrOrdering, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// WriteSummary prints a human readable report of stats to w.
func WriteSummary(w io.Writer, s *Stats) {
	fmt.Fprintf(w, "Score load summary\n")
	fmt.Fprintf(w, "  seed:          %d\n", s.Seed)
	fmt.Fprintf(w, "  submitted:     %d of %d\n", s.Submitted, s.Generated)
	fmt.Fprintf(w, "  accepted:      %d\n", s.Accepted)
	fmt.Fprintf(w, "  rejected:      %d\n", s.Rejected)
	fmt.Fprintf(w, "  throttled:     %d\n", s.Throttled)
	fmt.Fprintf(w, "  failed:        %d\n", s.Failed)
	fmt.Fprintf(w, "  score count:   %d -> %d", s.CountBefore, s.CountAfter)
	if s.CountMismatch {
		fmt.Fprintf(w, " (expected %d)", s.CountBefore+s.Accepted)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  top fetched:   %d (best %d, best submitted %d)\n", s.TopFetched, s.TopScore, s.MaxSubmitted)
	fmt.Fprintf(w, "  duration:      %s (%.1f req/s)\n", s.Duration.Round(time.Millisecond), s.SubmitRate())
}
