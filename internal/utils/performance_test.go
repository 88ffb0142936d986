package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	stop := OperationTimer("compute_returns", log)
	time.Sleep(time.Millisecond)
	d := stop()

	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.Contains(t, buf.String(), `"operation":"compute_returns"`)
	assert.Contains(t, buf.String(), "Operation completed")
	assert.NotContains(t, buf.String(), "Slow operation detected")
}
