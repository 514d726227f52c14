package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTimelineGenerator(seed int64) *DataGeneratorService {
	return NewDataGeneratorService(rand.New(rand.NewSource(seed)), nil, nil, nil)
}

func TestGenerateUserTimelineDeterministic(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	first := newTimelineGenerator(42).GenerateUserTimeline(100, 1, 240, start)
	second := newTimelineGenerator(42).GenerateUserTimeline(100, 1, 240, start)
	assert.Equal(t, first, second)

	// 不同种子产生不同时间线
	other := newTimelineGenerator(7).GenerateUserTimeline(100, 1, 240, start)
	assert.NotEqual(t, first, other)
}

func TestGenerateUserTimelineInvariants(t *testing.T) {
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	for seed := int64(0); seed < 50; seed++ {
		timeline := newTimelineGenerator(seed).GenerateUserTimeline(100, 1, 240, start)
		require.NotEmpty(t, timeline, "seed=%d", seed)

		prev := start.Add(-time.Hour)
		for i, log := range timeline {
			assert.GreaterOrEqual(t, log.ProgressPercent, 0.0)
			assert.LessOrEqual(t, log.ProgressPercent, 100.0)
			assert.GreaterOrEqual(t, log.WatchDurationSec, 0)
			assert.True(t, log.LoggedAt.After(prev), "seed=%d event=%d", seed, i)
			prev = log.LoggedAt

			// 离段事件只能是最后一条，且必须携带原因
			if log.IsDropout {
				assert.Equal(t, len(timeline)-1, i, "seed=%d", seed)
				require.NotNil(t, log.DropoutReason)
				assert.NotEmpty(t, *log.DropoutReason)
			}
		}

		// 未离段的时间线必须以完课收尾
		last := timeline[len(timeline)-1]
		if !last.IsDropout {
			assert.Equal(t, 100.0, last.ProgressPercent, "seed=%d", seed)
		}
	}
}

func TestGeneratedTimelineFeedsEngine(t *testing.T) {
	engine := newTestEngine(t)
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	gen := newTimelineGenerator(42)

	all := gen.GenerateUserTimeline(1, 1, 240, start)
	for u := uint(2); u <= 50; u++ {
		all = append(all, gen.GenerateUserTimeline(u, 1, 240, start)...)
	}

	cohort, err := engine.ResolveCohort(all)
	require.NoError(t, err)
	assert.Len(t, cohort, 50)

	segments := engine.AnalyzeSegments(cohort)
	require.Len(t, segments, 10)
	assert.Equal(t, 50, segments[0].ReachedCount)
}
