package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/document"
	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

const machineSample = `John Doe
john.doe@example.com
Skills
Go, Python
Experience
Engineer at Acme 2018 - 2022`

var plainRaw = document.Raw{Data: []byte(machineSample), Mime: document.MimeText}

type stubStructurer struct {
	calls int
	fn    func(ctx context.Context, call int) (*profile.Snapshot, float64, error)
}

func (s *stubStructurer) Structure(ctx context.Context, _ string, _ Schema) (*profile.Snapshot, float64, error) {
	s.calls++
	return s.fn(ctx, s.calls)
}

func goodSnapshot() *profile.Snapshot {
	return &profile.Snapshot{
		FullName:        "John Doe",
		Email:           "john.doe@example.com",
		Title:           "Engineer",
		YearsExperience: 4,
		Skills:          []string{"Go", "Python"},
	}
}

func newTestMachine(t *testing.T, s Structurer, cfg Config) *Machine {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	return NewMachine(s, tax, cfg, zap.NewNop())
}

func TestMachineValidated(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return goodSnapshot(), 0.9, nil
	}}
	m := newTestMachine(t, stub, Config{})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)

	assert.Equal(t, StateValidated, out.State)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)
	assert.Equal(t, 1, out.Attempts)
	require.NotNil(t, out.Profile)
	assert.Equal(t, "John Doe", out.Profile.FullName.Value)
	assert.Equal(t, profile.OriginExtracted, out.Profile.FullName.Origin)
	assert.InDelta(t, 0.9, out.Profile.FullName.Confidence, 1e-9)
	assert.Equal(t, []string{"go", "python"}, out.Profile.Skills.Value)
}

func TestMachineClampsConfidence(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return goodSnapshot(), 1.5, nil
	}}
	m := newTestMachine(t, stub, Config{})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, out.State)
	assert.InDelta(t, 1.0, out.Confidence, 1e-9)
}

func TestMachineLowConfidenceDegrades(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return goodSnapshot(), 0.3, nil
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)

	assert.Equal(t, StateDegraded, out.State)
	assert.Equal(t, 1, out.Attempts, "low confidence is final, not retried")
	assert.Equal(t, 1, stub.calls)
	assert.InDelta(t, 0.4, out.Confidence, 1e-9)
	require.NotNil(t, out.Profile)
	assert.Equal(t, "john.doe@example.com", out.Profile.Email.Value)
	assert.InDelta(t, 0.4, out.Profile.Email.Confidence, 1e-9)
	assert.InDelta(t, 0.4, out.Profile.Skills.Confidence, 1e-9)
}

func TestMachineRetriesTransient(t *testing.T) {
	stub := &stubStructurer{fn: func(_ context.Context, call int) (*profile.Snapshot, float64, error) {
		switch call {
		case 1:
			return nil, 0, ErrStructuringUnavailable
		case 2:
			return nil, 0, ErrStructuringTimeout
		default:
			return goodSnapshot(), 0.8, nil
		}
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, stub.calls)
}

func TestMachineExhaustedDegrades(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return nil, 0, ErrStructuringUnavailable
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, out.State)
	assert.Equal(t, 3, out.Attempts)
	require.NotNil(t, out.Profile)
	assert.Equal(t, "John Doe", out.Profile.FullName.Value)
}

func TestMachineInvalidResponseRetried(t *testing.T) {
	stub := &stubStructurer{fn: func(_ context.Context, call int) (*profile.Snapshot, float64, error) {
		switch call {
		case 1:
			return nil, 0.9, nil
		case 2:
			return &profile.Snapshot{FullName: "John Doe", Email: "not-an-email"}, 0.9, nil
		default:
			return goodSnapshot(), 0.9, nil
		}
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, out.State)
	assert.Equal(t, 3, out.Attempts)
}

func TestMachineNonTransientStops(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return nil, 0, errors.New("permission denied")
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, stub.calls)
}

func TestMachineNilStructurer(t *testing.T) {
	m := newTestMachine(t, nil, Config{})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, out.State)
	assert.Equal(t, 0, out.Attempts)
	require.NotNil(t, out.Profile)
}

func TestMachineUnreadableFails(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return goodSnapshot(), 0.9, nil
	}}
	m := newTestMachine(t, stub, Config{})

	out, err := m.Run(context.Background(), document.Raw{
		Data: []byte("%PDF-1.4 garbage"),
		Mime: document.MimePDF,
	})
	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, err, document.ErrUnreadable)
	assert.Equal(t, 0, stub.calls)
}

func TestMachineHeuristicFailureFails(t *testing.T) {
	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		return nil, 0, ErrStructuringUnavailable
	}}
	m := newTestMachine(t, stub, Config{Backoff: time.Millisecond})

	out, err := m.Run(context.Background(), document.Raw{
		Data: []byte("zzz qqq\nwww eee"),
		Mime: document.MimeText,
	})
	assert.Equal(t, StateFailed, out.State)
	assert.ErrorIs(t, err, ErrHeuristicExtraction)
}

func TestMachineCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := &stubStructurer{fn: func(context.Context, int) (*profile.Snapshot, float64, error) {
		cancel()
		return nil, 0, ErrStructuringUnavailable
	}}
	m := newTestMachine(t, stub, Config{MaxRetries: 2, Backoff: 50 * time.Millisecond})

	out, err := m.Run(ctx, plainRaw)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateStructuring, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Nil(t, out.Profile)
}

func TestMachineAttemptTimeout(t *testing.T) {
	stub := &stubStructurer{fn: func(ctx context.Context, _ int) (*profile.Snapshot, float64, error) {
		<-ctx.Done()
		return nil, 0, fmt.Errorf("%w: %v", ErrStructuringTimeout, ctx.Err())
	}}
	m := newTestMachine(t, stub, Config{
		MaxRetries: 1,
		Backoff:    time.Millisecond,
		Timeout:    10 * time.Millisecond,
	})

	out, err := m.Run(context.Background(), plainRaw)
	require.NoError(t, err)
	assert.Equal(t, StateDegraded, out.State)
	assert.Equal(t, 2, out.Attempts)
}
