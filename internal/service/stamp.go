package service

import (
	"sync"
	"time"

	"github.com/juju/clock"
)

// stampSource 发放严格递增的 UTC 时间戳，同一时刻的多次调用顺延一微秒
type stampSource struct {
	mu    sync.Mutex
	clock clock.Clock
	last  time.Time
}

func newStampSource(clk clock.Clock) *stampSource {
	if clk == nil {
		clk = clock.WallClock
	}
	return &stampSource{clock: clk}
}

func (s *stampSource) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}
