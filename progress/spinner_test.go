package progress

import (
	"strings"
	"testing"
	"time"
)

func TestSpinnerAdvances(t *testing.T) {
	s := NewSpinner("counting words")
	defer s.Stop()

	first := s.String()
	if !strings.HasPrefix(first, "counting words ") {
		t.Errorf("unexpected spinner %q", first)
	}

	time.Sleep(250 * time.Millisecond)
	s.mu.Lock()
	value := s.value
	s.mu.Unlock()
	if value == 0 {
		t.Error("spinner did not advance")
	}
}

func TestSpinnerSetMessage(t *testing.T) {
	s := NewSpinner("counting")
	s.Stop()
	s.SetMessage("counted 12 words")

	if got := s.String(); got != "counted 12 words " {
		t.Errorf("String() = %q", got)
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := NewSpinner("")
	s.Stop()
	stopped := s.stopped
	s.Stop()
	if !s.stopped.Equal(stopped) {
		t.Error("second Stop changed the stop time")
	}
}
