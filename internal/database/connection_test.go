package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPool_InvalidURL(t *testing.T) {
	_, err := NewPool(context.Background(), Config{URL: "postgres://%zz"})

	assert.ErrorContains(t, err, "failed to parse database config")
}
