package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestGateAllowsFirstThenBlocks(t *testing.T) {
	g := NewGate(time.Hour)
	if !g.Allow() {
		t.Fatal("first Allow should pass")
	}
	if g.Allow() {
		t.Fatal("second Allow inside the interval should be denied")
	}
}

func TestGateZeroIntervalAlwaysAllows(t *testing.T) {
	g := NewGate(0)
	for i := 0; i < 5; i++ {
		if !g.Allow() {
			t.Fatalf("Allow %d denied with zero interval", i)
		}
	}
}

func TestGateReopensAfterInterval(t *testing.T) {
	g := NewGate(10 * time.Millisecond)
	if !g.Allow() {
		t.Fatal("first Allow should pass")
	}
	time.Sleep(20 * time.Millisecond)
	if !g.Allow() {
		t.Fatal("Allow after the interval elapsed should pass")
	}
}

func TestGateSingleGrantUnderContention(t *testing.T) {
	g := NewGate(time.Hour)
	const goroutines = 16
	granted := make(chan struct{}, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if g.Allow() {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	if len(granted) != 1 {
		t.Fatalf("%d grants under contention, want exactly 1", len(granted))
	}
}

func TestGateNilReceiverDenies(t *testing.T) {
	var g *Gate
	if g.Allow() {
		t.Fatal("nil gate must deny")
	}
}
