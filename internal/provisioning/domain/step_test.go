package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	errDB := errors.New("database busy")
	errRealm := errors.New("realm locked")

	t.Run("AllOK", func(t *testing.T) {
		s := Summary{Results: []TaskResult{{Name: "a"}, {Name: "b"}}}
		assert.True(t, s.OK())
		assert.Empty(t, s.Failed())
		assert.NoError(t, s.Err())
	})

	t.Run("SomeFailed", func(t *testing.T) {
		s := Summary{Results: []TaskResult{
			{Name: "database", Err: errDB},
			{Name: "user"},
			{Name: "realm", Err: errRealm},
		}}
		assert.False(t, s.OK())
		assert.Equal(t, []TaskResult{{Name: "database", Err: errDB}, {Name: "realm", Err: errRealm}}, s.Failed())
		assert.ErrorIs(t, s.Err(), errDB)
		assert.ErrorIs(t, s.Err(), errRealm)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.True(t, Summary{}.OK())
	})
}
