// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"time"
)

// Field limits shared by every backend.
const (
	MaxPlayerNameLength = 100
	MinLevel            = 1
	DefaultPlayerName   = "Anonymous"
)

// Submission is a validated request to store one score.
type Submission struct {
	PlayerName   string
	Score        int
	Level        int
	GameDuration int // seconds
}

// Score is one stored, immutable score record.
// ID and Created are assigned by the store on insert.
type Score struct {
	ID           int64
	Created      time.Time
	PlayerName   string
	Score        int
	Level        int
	GameDuration int
}

// NewScore builds the record a store returns for an accepted submission.
func NewScore(id int64, created time.Time, in Submission) Score {
	return Score{
		ID:           id,
		Created:      created,
		PlayerName:   in.PlayerName,
		Score:        in.Score,
		Level:        in.Level,
		GameDuration: in.GameDuration,
	}
}

// scoreJSON is the wire shape of a Score.
type scoreJSON struct {
	ID           int64   `json:"id"`
	Created      *string `json:"created"`
	PlayerName   string  `json:"player_name"`
	Score        int     `json:"score"`
	Level        int     `json:"level"`
	GameDuration int     `json:"game_duration"`
}

// MarshalJSON encodes created as an ISO-8601 timestamp, or null when unset.
func (s Score) MarshalJSON() ([]byte, error) {
	out := scoreJSON{
		ID:           s.ID,
		PlayerName:   s.PlayerName,
		Score:        s.Score,
		Level:        s.Level,
		GameDuration: s.GameDuration,
	}
	if !s.Created.IsZero() {
		ts := s.Created.Format(time.RFC3339Nano)
		out.Created = &ts
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Score) UnmarshalJSON(data []byte) error {
	var in scoreJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Score{
		ID:           in.ID,
		PlayerName:   in.PlayerName,
		Score:        in.Score,
		Level:        in.Level,
		GameDuration: in.GameDuration,
	}
	if in.Created != nil {
		ts, err := time.Parse(time.RFC3339Nano, *in.Created)
		if err != nil {
			return err
		}
		s.Created = ts
	}
	return nil
}
