package qaeval

import (
	"sync"
	"testing"
)

func TestSessionState(t *testing.T) {
	initial := State{"question": "q"}
	s := NewSession(initial)
	s.PutState("answer", "a")

	state := s.State()
	if state["question"] != "q" || state["answer"] != "a" {
		t.Errorf("State() = %v", state)
	}
	if _, ok := initial["answer"]; ok {
		t.Errorf("NewSession should copy the initial state")
	}
	state["question"] = "changed"
	if s.State()["question"] != "q" {
		t.Errorf("State() should return a copy")
	}
}

func TestSessionAppendConcurrent(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(UserMessage("hi"))
		}()
	}
	wg.Wait()
	if got := len(s.History()); got != 10 {
		t.Errorf("History() = %d messages, want 10", got)
	}
}
