package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 9 * * *", spec)

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:10", "10:xx", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduleAndRemove(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)

	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)
	_, err = s.ScheduleDaily("25:00", func() {})
	assert.Error(t, err)
	assert.Zero(t, s.Len())

	daily, err := s.ScheduleDaily("03:30", func() {})
	require.NoError(t, err)
	tick, err := s.ScheduleInterval(500*time.Millisecond, func() {})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s.Remove(tick)
	s.Remove(tick)
	assert.Equal(t, 1, s.Len())
	s.Remove(daily)
	assert.Zero(t, s.Len())
}

func TestIntervalJobRunsAndStops(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	fired := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("interval job never ran")
	}
}

func TestPanickingJobIsRecovered(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil)
	fired := make(chan struct{}, 1)
	_, err := s.ScheduleInterval(time.Second, func() {
		defer func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		}()
		panic("boom")
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}
}
