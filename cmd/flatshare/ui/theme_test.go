package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnStatus(t *testing.T) {
	assert.Contains(t, TurnStatus(true, true), "done")
	assert.Contains(t, TurnStatus(false, true), "your turn")
	assert.Contains(t, TurnStatus(false, false), "pending")
}

func TestLabelValue(t *testing.T) {
	out := LabelValue("Total", "12.50")
	assert.Contains(t, out, "Total:")
	assert.Contains(t, out, "12.50")
}
