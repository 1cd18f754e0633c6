package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Collecting", &strings.Builder{})
	assert.Equal(t, "Collecting", s.Label())
	assert.Equal(t, SpinnerPending, s.State())
}

func TestSpinnerStartStop(t *testing.T) {
	var buf strings.Builder
	s := NewSpinner("Collecting", &buf)

	s.Start()
	s.Start() // second start is a no-op
	assert.Equal(t, SpinnerInProgress, s.State())
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Equal(t, SpinnerInProgress, s.State())
	assert.Contains(t, buf.String(), "Collecting...")
}

func TestSpinnerSuccess(t *testing.T) {
	var buf strings.Builder
	s := NewSpinner("Collecting", &buf)

	s.Start()
	s.Success()

	assert.Equal(t, SpinnerSuccess, s.State())
	assert.Contains(t, buf.String(), SymbolSuccess)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestSpinnerFail(t *testing.T) {
	var buf strings.Builder
	s := NewSpinner("Collecting", &buf)

	s.Start()
	s.Fail()

	assert.Equal(t, SpinnerFailed, s.State())
	assert.Contains(t, buf.String(), SymbolFail)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.05s", formatDuration(50*time.Millisecond))
	assert.Equal(t, "1.2s", formatDuration(1200*time.Millisecond))
}
