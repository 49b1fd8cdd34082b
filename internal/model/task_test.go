package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	for _, s := range ValidStatuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, c := range ValidContexts() {
		got, err := ParseContext(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseStatus("in_progress")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = ParseStatus("TODO")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = ParsePriority("critical")
	assert.True(t, errors.Is(err, ErrInvalidPriority))
	_, err = ParseContext("work")
	assert.True(t, errors.Is(err, ErrInvalidContext))
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.Equal(t, s == StatusArchived, s.IsTerminal(), string(s))
	}
}

func TestPriorityRankOrder(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	assert.Equal(t, -1, Priority("nope").Rank())
}

func TestPriorityValueScan(t *testing.T) {
	for _, p := range ValidPriorities() {
		v, err := p.Value()
		require.NoError(t, err)

		var scanned Priority
		require.NoError(t, scanned.Scan(v))
		assert.Equal(t, p, scanned)
	}

	_, err := Priority("").Value()
	assert.True(t, errors.Is(err, ErrInvalidPriority))

	var p Priority
	assert.Error(t, p.Scan(int64(4)))
	assert.Error(t, p.Scan(nil))
	require.NoError(t, p.Scan([]byte("high")))
	assert.Equal(t, PriorityHigh, p)
}

func TestTaskClone(t *testing.T) {
	desc := "d"
	due := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	orig := Task{ID: "x", Description: &desc, DueAt: &due, Tags: []string{"a"}}

	c := orig.Clone()
	*c.Description = "changed"
	c.Tags[0] = "b"
	*c.DueAt = due.Add(time.Hour)

	assert.Equal(t, "d", *orig.Description)
	assert.Equal(t, "a", orig.Tags[0])
	assert.True(t, orig.DueAt.Equal(due))

	assert.NotNil(t, Task{}.Clone().Tags)
}
