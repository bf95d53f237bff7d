package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskPriorityValid(t *testing.T) {
	assert.True(t, PriorityLow.Valid())
	assert.True(t, PriorityMedium.Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, TaskPriority("").Valid())
	assert.False(t, TaskPriority("urgent").Valid())
}
