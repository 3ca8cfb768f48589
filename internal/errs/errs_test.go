package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsMatchByKind(t *testing.T) {
	err := NotFound("entity %s not found", "t144")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrMalformedSpec))
	assert.Equal(t, "entity t144 not found", err.Error())
}

func TestQueryExecutionIsNetwork(t *testing.T) {
	cause := errors.New("connection reset")
	err := QueryExecution(cause, "query %s failed", "q1")

	assert.True(t, errors.Is(err, ErrQueryExecution))
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "query q1 failed: connection reset", err.Error())
}

func TestNetworkIsNotQueryExecution(t *testing.T) {
	err := Network(context.DeadlineExceeded, "get entity timed out")
	assert.False(t, errors.Is(err, ErrQueryExecution))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolving template: %w", EmptyResult("query %s returned no rows", "q1"))
	require.Error(t, err)
	assert.Equal(t, KindEmptyResult, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
