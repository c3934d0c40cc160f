package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError(t *testing.T) {
	base := errors.New("syntax error")
	err := fmt.Errorf("sampling: %w", &QueryError{Query: strings.Repeat("x", 600), Err: base})

	assert.True(t, IsQueryError(err))
	assert.False(t, IsConnectionError(err))
	assert.ErrorIs(t, err, base)
	assert.NotContains(t, err.Error(), strings.Repeat("x", 501))
}

func TestConnectionError(t *testing.T) {
	err := &ConnectionError{Type: "postgres", Err: errors.New("refused")}
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, "failed to connect to postgres: refused", err.Error())
}
