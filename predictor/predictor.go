package predictor

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Predictor re-derives the compaction scheduler's next picks from a
// read-only snapshot of the level state. It executes nothing: the output
// of a round is the set of file ids hypothesized to participate in the
// compactions the scheduler would start if it ran right now.
//
// RocksDB Reference: the heuristics mirrored here live in
// LevelCompactionBuilder::PickCompaction() and
// VersionStorageInfo::ComputeCompactionScore()
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/compaction/compaction_picker_level.cc
type Predictor struct {
	cfg    Config
	ledger *Ledger
	tracer trace.Tracer

	mu        sync.Mutex
	blacklist map[uint64]struct{}
	stats     Stats
}

// New creates a Predictor with the given configuration. tracer may be
// nil; rounds then run unspanned.
func New(cfg Config, tracer trace.Tracer) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Predictor{
		cfg:       cfg,
		ledger:    NewLedger(cfg.LedgerEvictionRounds),
		tracer:    tracer,
		blacklist: make(map[uint64]struct{}),
		stats:     newStats(),
	}, nil
}

// Predict runs one prediction round over snap and returns the
// hypothesized participant file ids in ascending order. An empty slice
// means no compaction is expected from this state. The snapshot must
// stay stable for the duration of the call.
func (p *Predictor) Predict(ctx context.Context, snap Snapshot) []uint64 {
	var span trace.Span
	if p.tracer != nil {
		ctx, span = p.tracer.Start(ctx, "predictor.Predict")
		defer span.End()
	}
	_ = ctx

	result := make(CandidateSet)
	perLevel := make(map[int]int)
	supplementals := 0
	l0Contributed := false

	for _, level := range EligibleLevels(snap, p.cfg) {
		if level == 0 {
			// L0 never contributes its own ids; the sweep's predicted
			// effect is the base-level files it drags in.
			targets := l0Targets(snap, p.cfg)
			if len(targets) > 0 {
				l0Contributed = true
				perLevel[0] += len(targets)
				result.Union(targets)
			}
			continue
		}

		set, extra := p.predictLevel(snap, level, result)
		supplementals += extra
		perLevel[level] += len(set)
		result.Union(set)
	}

	evicted := p.ledger.Observe(result)

	p.mu.Lock()
	p.stats.Rounds++
	p.stats.PredictedFiles += int64(len(result))
	p.stats.LastRoundFiles = len(result)
	p.stats.SupplementalRounds += int64(supplementals)
	p.stats.LedgerEvictions += int64(evicted)
	p.stats.LedgerEntries = p.ledger.Len()
	if l0Contributed {
		p.stats.L0Rounds++
	}
	for level, n := range perLevel {
		p.stats.LevelCandidates[level] += int64(n)
	}
	p.mu.Unlock()

	if span != nil {
		span.SetAttributes(
			attribute.Int("predictor.candidates", len(result)),
			attribute.Int("predictor.supplemental_rounds", supplementals),
			attribute.Int("predictor.ledger_evictions", evicted),
		)
	}

	return result.IDs()
}

// predictLevel selects candidate batches for one level (never L0) plus
// their target-level overlaps, repeating with fresh start files while
// the level's re-estimated score stays over trigger, up to the
// supplemental-round bound. Returns the candidate set and the number of
// supplemental batches taken.
func (p *Predictor) predictLevel(snap Snapshot, level int, already CandidateSet) (CandidateSet, int) {
	out := make(CandidateSet)
	skip := func(id uint64) bool {
		if out.Has(id) || already.Has(id) {
			return true
		}
		p.mu.Lock()
		_, barred := p.blacklist[id]
		p.mu.Unlock()
		return barred
	}

	var picker startPicker = priorityPicker{}
	cursor := snap.ResumeCursor(level)
	extra := 0
	for batch := 0; batch <= p.cfg.MaxSupplementalRounds; batch++ {
		var set CandidateSet
		var union keyRange

		if p.cfg.SelectionPolicy == SelectRoundRobin {
			var next int
			set, union, next = expandRoundRobin(snap, level, cursor, p.cfg.RoundRobinBudgetBytes, skip)
			if len(set) == 0 || next == cursor {
				return out, extra
			}
			cursor = next
		} else {
			start, ok := picker.next(snap, level, skip)
			if !ok {
				return out, extra
			}
			set, union = expandCleanCut(snap, level, start)
		}

		out.Union(set)
		out.Union(targetFiles(snap, level+1, union, true))
		if batch > 0 {
			extra++
		}

		if reestimateScore(snap, level, out) <= p.cfg.ScoreTrigger {
			return out, extra
		}
	}
	return out, extra
}

// ConfirmCompacted tells the predictor that the given files were in fact
// compacted; their ledger entries are retired.
func (p *Predictor) ConfirmCompacted(ids []uint64) {
	p.ledger.Remove(ids)
}

// ReportIncorrect tells the predictor that the given files were
// predicted but the scheduler never picked them. Their ledger entries
// are purged, and when BlacklistIncorrect is set they are additionally
// barred from future start-file selection.
func (p *Predictor) ReportIncorrect(ids []uint64) {
	p.ledger.Remove(ids)
	if !p.cfg.BlacklistIncorrect {
		return
	}
	p.mu.Lock()
	for _, id := range ids {
		p.blacklist[id] = struct{}{}
	}
	p.mu.Unlock()
}

// LedgerSnapshot returns a copy of the consecutive-round counts for the
// currently tracked predictions.
func (p *Predictor) LedgerSnapshot() map[uint64]int {
	return p.ledger.Snapshot()
}

// Stats returns a copy of the cumulative prediction statistics.
func (p *Predictor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.Clone()
}

// Config returns the predictor's configuration.
func (p *Predictor) Config() Config {
	return p.cfg
}
