package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latch-protocol/latch-go/pkg/wire"
)

func TestSimulatedLatch(t *testing.T) {
	latch := NewSimulated(nil)
	assert.False(t, latch.Locked())

	assert.NoError(t, latch.Apply(wire.CommandDisengage))
	assert.True(t, latch.Locked())

	assert.NoError(t, latch.Apply(wire.CommandEngage))
	assert.False(t, latch.Locked())

	assert.Equal(t, []wire.Command{wire.CommandDisengage, wire.CommandEngage}, latch.History())
}
