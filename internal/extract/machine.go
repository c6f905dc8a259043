package extract

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/document"
	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// State is where an intake sits in the extraction pipeline.
type State string

const (
	StateReceived    State = "received"
	StateNormalized  State = "normalized"
	StateStructuring State = "structuring"
	StateValidated   State = "validated"
	StateDegraded    State = "degraded"
	StateFailed      State = "failed"
)

// Config tunes the extraction state machine. Zero values fall back to
// the defaults below.
type Config struct {
	// AcceptanceThreshold is the minimum structurer confidence for a
	// Validated outcome.
	AcceptanceThreshold float64
	// DegradedCeiling caps every field confidence on the heuristic path.
	DegradedCeiling float64
	// MaxRetries is the number of additional structuring attempts after
	// the first one fails transiently.
	MaxRetries int
	// Backoff is the wait before the first retry; it doubles per retry.
	Backoff time.Duration
	// Timeout bounds each individual structuring attempt.
	Timeout time.Duration
}

const (
	defaultAcceptance = 0.6
	defaultCeiling    = 0.4
	defaultBackoff    = 500 * time.Millisecond
	defaultTimeout    = 45 * time.Second
)

// Outcome is the terminal result of running the machine on one document.
type Outcome struct {
	State      State
	Profile    *profile.Candidate
	Confidence float64
	Attempts   int
}

// Machine drives a document from raw bytes to a structured profile:
// received, normalized, structuring, then validated, degraded or failed.
type Machine struct {
	structurer Structurer
	heuristic  *Heuristic
	tax        *taxonomy.Taxonomy
	cfg        Config
	log        *zap.Logger
}

// NewMachine builds a machine. structurer may be nil, in which case every
// document takes the heuristic path.
func NewMachine(structurer Structurer, tax *taxonomy.Taxonomy, cfg Config, log *zap.Logger) *Machine {
	if cfg.AcceptanceThreshold == 0 {
		cfg.AcceptanceThreshold = defaultAcceptance
	}
	if cfg.DegradedCeiling == 0 {
		cfg.DegradedCeiling = defaultCeiling
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		structurer: structurer,
		heuristic:  NewHeuristic(tax),
		tax:        tax,
		cfg:        cfg,
		log:        log,
	}
}

// Run takes one raw document to a terminal state. Cancellation of ctx is
// returned as-is and never converted into a degraded outcome.
func (m *Machine) Run(ctx context.Context, raw document.Raw) (Outcome, error) {
	text, err := document.Text(raw)
	if err != nil {
		return Outcome{State: StateFailed}, err
	}

	if m.structurer == nil {
		m.log.Debug("no structuring backend configured")
		return m.degrade(text, 0)
	}

	attempts := 0
	var lastErr error
	for i := 0; i <= m.cfg.MaxRetries; i++ {
		if i > 0 {
			wait := m.cfg.Backoff << (i - 1)
			select {
			case <-ctx.Done():
				return Outcome{State: StateStructuring, Attempts: attempts}, ctx.Err()
			case <-time.After(wait):
			}
		}
		attempts++

		snap, conf, err := m.structure(ctx, text)
		if err == nil {
			if conf >= m.cfg.AcceptanceThreshold {
				cand := profile.FromSnapshot(snap, profile.OriginExtracted, conf, m.tax)
				return Outcome{
					State:      StateValidated,
					Profile:    cand,
					Confidence: conf,
					Attempts:   attempts,
				}, nil
			}
			m.log.Info("structured result below acceptance threshold",
				zap.Float64("confidence", conf),
				zap.Float64("threshold", m.cfg.AcceptanceThreshold))
			return m.degrade(text, attempts)
		}

		lastErr = err
		if ctx.Err() != nil {
			return Outcome{State: StateStructuring, Attempts: attempts}, ctx.Err()
		}
		if !transient(err) {
			break
		}
		m.log.Warn("structuring attempt failed",
			zap.Int("attempt", attempts), zap.Error(err))
	}

	m.log.Warn("structuring exhausted, falling back to heuristics",
		zap.Int("attempts", attempts), zap.Error(lastErr))
	return m.degrade(text, attempts)
}

// structure runs one bounded structuring attempt and validates the result.
func (m *Machine) structure(ctx context.Context, text string) (*profile.Snapshot, float64, error) {
	actx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	snap, conf, err := m.structurer.Structure(actx, text, DefaultSchema())
	if err != nil {
		return nil, 0, err
	}
	if snap == nil {
		return nil, 0, fmt.Errorf("%w: nil snapshot", ErrInvalidResponse)
	}
	if err := snap.Validate(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	return snap, conf, nil
}

func (m *Machine) degrade(text string, attempts int) (Outcome, error) {
	cand, err := m.heuristic.Extract(text)
	if err != nil {
		return Outcome{State: StateFailed, Attempts: attempts},
			fmt.Errorf("%w: %v", ErrHeuristicExtraction, err)
	}
	cand.CapConfidences(m.cfg.DegradedCeiling)
	return Outcome{
		State:      StateDegraded,
		Profile:    cand,
		Confidence: m.cfg.DegradedCeiling,
		Attempts:   attempts,
	}, nil
}
