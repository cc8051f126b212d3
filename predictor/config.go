package predictor

import (
	"encoding/json"
	"fmt"
)

// SelectionPolicy represents the scheduler's file-selection policy for
// leveled compaction.
//
// RocksDB Reference: compaction_pri in include/rocksdb/advanced_options.h
// GitHub: https://github.com/facebook/rocksdb/blob/main/include/rocksdb/advanced_options.h
type SelectionPolicy int

const (
	// SelectByPriority walks the level's priority-ordered file index
	// list from a resume cursor (RocksDB's files_by_compaction_pri_).
	SelectByPriority SelectionPolicy = iota
	// SelectRoundRobin advances a per-level cursor through files in
	// index order across rounds (RocksDB's kRoundRobin).
	SelectRoundRobin
)

// String returns the string representation of SelectionPolicy
func (sp SelectionPolicy) String() string {
	switch sp {
	case SelectByPriority:
		return "priority"
	case SelectRoundRobin:
		return "round-robin"
	default:
		return "unknown"
	}
}

// ParseSelectionPolicy parses a string into SelectionPolicy
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch s {
	case "priority":
		return SelectByPriority, nil
	case "round-robin":
		return SelectRoundRobin, nil
	default:
		return SelectByPriority, fmt.Errorf("invalid selection policy: %s (must be 'priority' or 'round-robin')", s)
	}
}

// MarshalJSON implements json.Marshaler for SelectionPolicy
func (sp SelectionPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(sp.String())
}

// UnmarshalJSON implements json.Unmarshaler for SelectionPolicy
func (sp *SelectionPolicy) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSelectionPolicy(s)
	if err != nil {
		return err
	}
	*sp = parsed
	return nil
}

// Config holds the predictor's tuning knobs. The trigger constants
// mirror the scheduler heuristics being re-derived; the defaults match
// the scheduler's conventional thresholds and should rarely need
// changing.
type Config struct {
	// ScoreTrigger is the direct per-level trigger. A level whose score
	// exceeds this is expected to be picked for compaction (RocksDB
	// convention: score > 1.0 means "over target size").
	ScoreTrigger float64 `json:"scoreTrigger"`

	// CascadeScoreFloor is the minimum score an intermediate level must
	// carry for backlog pressure from an over-trigger upper level to
	// propagate down through it.
	CascadeScoreFloor float64 `json:"cascadeScoreFloor"`

	// Soft L1 trigger: L1 is selected even below ScoreTrigger when L0 is
	// over trigger and L1 shows latent pressure via any of score floor,
	// file count, or a byte imbalance against L2.
	SoftL1ScoreFloor  float64 `json:"softL1ScoreFloor"`
	SoftL1FileTrigger int     `json:"softL1FileTrigger"`

	// MaxSupplementalRounds bounds how many extra start files a level
	// may expand from while its re-estimated score stays over trigger.
	MaxSupplementalRounds int `json:"maxSupplementalRounds"`

	// LedgerEvictionRounds is the consecutive-round count past which a
	// ledger entry is treated as noise and dropped.
	LedgerEvictionRounds int `json:"ledgerEvictionRounds"`

	// SelectionPolicy picks the start-file strategy for leveled
	// selection.
	SelectionPolicy SelectionPolicy `json:"selectionPolicy"`

	// RoundRobinBudgetBytes caps the byte total of one round-robin
	// batch. 0 disables the budget check.
	RoundRobinBudgetBytes uint64 `json:"roundRobinBudgetBytes"`

	// BlacklistIncorrect makes ReportIncorrect permanently bar the
	// reported files from being chosen as starting files again, instead
	// of only purging their ledger entries. Off by default: a wrongly
	// predicted file may legitimately become a good start later.
	BlacklistIncorrect bool `json:"blacklistIncorrect"`
}

// DefaultConfig returns the conventional scheduler thresholds.
func DefaultConfig() Config {
	return Config{
		ScoreTrigger:          1.0,
		CascadeScoreFloor:     0.8,
		SoftL1ScoreFloor:      0.7,
		SoftL1FileTrigger:     8,
		MaxSupplementalRounds: 3,
		LedgerEvictionRounds:  3,
		SelectionPolicy:       SelectByPriority,
		RoundRobinBudgetBytes: 0,
		BlacklistIncorrect:    false,
	}
}

// Validate checks if configuration values are reasonable
func (c *Config) Validate() error {
	if c.ScoreTrigger <= 0 {
		return ErrInvalidConfig("scoreTrigger must be > 0")
	}
	if c.CascadeScoreFloor < 0 || c.CascadeScoreFloor > c.ScoreTrigger {
		return ErrInvalidConfig("cascadeScoreFloor must be in [0, scoreTrigger]")
	}
	if c.SoftL1ScoreFloor < 0 || c.SoftL1ScoreFloor > c.ScoreTrigger {
		return ErrInvalidConfig("softL1ScoreFloor must be in [0, scoreTrigger]")
	}
	if c.SoftL1FileTrigger < 1 {
		return ErrInvalidConfig("softL1FileTrigger must be >= 1")
	}
	if c.MaxSupplementalRounds < 0 {
		return ErrInvalidConfig("maxSupplementalRounds must be >= 0")
	}
	if c.LedgerEvictionRounds < 1 {
		return ErrInvalidConfig("ledgerEvictionRounds must be >= 1")
	}
	// SelectionPolicy validation: type-safe enum, no additional validation needed
	return nil
}
