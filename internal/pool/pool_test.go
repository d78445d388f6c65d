package pool_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iamNilotpal/ignitedb/internal/pool"
)

func TestSharedQueueRunsAllJobs(t *testing.T) {
	p := pool.NewSharedQueue(4)
	defer p.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		i := i
		p.Spawn(func() {
			defer wg.Done()
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not complete in time")
	}

	assert.Len(t, seen, 50)
}

func TestSharedQueueSurvivesPanickingJob(t *testing.T) {
	p := pool.NewSharedQueue(1)
	defer p.Close()

	p.Spawn(func() { panic("boom") })

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	p.Spawn(func() {
		defer wg.Done()
		ran = true
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not respawn after a panicking job")
	}
	assert.True(t, ran)
}

func TestNaivePoolRunsJob(t *testing.T) {
	p := pool.NewNaive()
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	p.Spawn(func() {
		defer wg.Done()
		ran = true
	})
	wg.Wait()
	assert.True(t, ran)
}
