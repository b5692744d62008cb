package callsession

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateQueueDrainPreservesOrder(t *testing.T) {
	var q candidateQueue
	for i := 0; i < 5; i++ {
		q.Push(json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
	}
	require.Equal(t, 5, q.Len())

	drained := q.Drain()
	require.Len(t, drained, 5)
	for i, c := range drained {
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(c))
	}
	assert.Equal(t, 0, q.Len())
}

func TestCandidateQueueDropsOldestWhenFull(t *testing.T) {
	var q candidateQueue
	for i := 0; i < maxPendingCandidates+8; i++ {
		q.Push(json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)))
	}
	require.Equal(t, maxPendingCandidates, q.Len())

	// En eski 8 aday düşmüş olmalı; kalanlar sıralı.
	drained := q.Drain()
	assert.JSONEq(t, `{"n":8}`, string(drained[0]))
	assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, maxPendingCandidates+7), string(drained[len(drained)-1]))
}

func TestCandidateQueueDrainEmpty(t *testing.T) {
	var q candidateQueue
	assert.Empty(t, q.Drain())
}
