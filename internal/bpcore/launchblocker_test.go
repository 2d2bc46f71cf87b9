package bpcore

import (
	"context"
	"testing"
	"time"
)

func TestLaunchBlockerSet_WaitReturnsImmediatelyWhenEmpty(t *testing.T) {
	l := newLaunchBlockerSet()
	start := time.Now()
	l.Wait(context.Background())
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("Wait blocked with no pending blockers")
	}
}

func TestLaunchBlockerSet_WaitBlocksUntilDone(t *testing.T) {
	l := newLaunchBlockerSet()
	done := l.Add()

	go func() {
		time.Sleep(10 * time.Millisecond)
		done()
	}()

	start := time.Now()
	l.Wait(context.Background())
	if time.Since(start) < 5*time.Millisecond {
		t.Fatalf("Wait returned before blocker completed")
	}
}

func TestLaunchBlockerSet_WaitRespectsRaceTimeout(t *testing.T) {
	l := newLaunchBlockerSet()
	l.Add() // never completed

	start := time.Now()
	l.Wait(context.Background())
	elapsed := time.Since(start)
	if elapsed < launchBlockerRace || elapsed > launchBlockerRace+500*time.Millisecond {
		t.Fatalf("Wait elapsed = %v, want ~%v", elapsed, launchBlockerRace)
	}
}
