package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsContention(t *testing.T) {
	assert.True(t, IsContention(&pq.Error{Code: "55P03"}))
	assert.True(t, IsContention(fmt.Errorf("lock student: %w", &pq.Error{Code: "40P01"})))
	assert.True(t, IsContention(&pq.Error{Code: "40001"}))
	assert.False(t, IsContention(&pq.Error{Code: "23503"}))
	assert.False(t, IsContention(errors.New("boom")))
}
