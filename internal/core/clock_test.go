package core

import (
	"sync"
	"testing"
	"time"
)

func TestRealClock_Since(t *testing.T) {
	clock := RealClock{}
	start := clock.Now()
	time.Sleep(10 * time.Millisecond)
	elapsed := clock.Since(start)

	if elapsed < 10*time.Millisecond {
		t.Errorf("RealClock.Since() returned %v, expected >= 10ms", elapsed)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	if clock.Since(start) != 0 {
		t.Errorf("FakeClock.Since(start) = %v, expected 0", clock.Since(start))
	}

	clock.Advance(10 * time.Second)
	clock.Advance(50 * time.Second)

	if clock.Since(start) != time.Minute {
		t.Errorf("after advancing 60s, Since(start) = %v, expected 1m", clock.Since(start))
	}
	if !clock.Now().Equal(start.Add(time.Minute)) {
		t.Errorf("Now() = %v, expected %v", clock.Now(), start.Add(time.Minute))
	}
}

func TestFakeClock_ConcurrentReads(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = clock.Now()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		clock.Advance(time.Millisecond)
	}
	wg.Wait()

	if clock.Since(time.Unix(0, 0)) != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", clock.Since(time.Unix(0, 0)))
	}
}
