package conversation

import (
	"sync"
	"testing"
)

func TestSessionLockerSerializesSameSession(t *testing.T) {
	l := NewSessionLocker()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestSessionLockerIndependentSessions(t *testing.T) {
	l := NewSessionLocker()

	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := l.Lock("b")
		unlockB()
		close(done)
	}()

	<-done
}

func TestSessionLockerCleansUp(t *testing.T) {
	l := NewSessionLocker()

	unlock := l.Lock("s1")
	unlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.locks) != 0 {
		t.Errorf("locks map has %d entries after release, want 0", len(l.locks))
	}
}
