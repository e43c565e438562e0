package xdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionNames(t *testing.T) {
	tests := []struct {
		action Action
		name   string
	}{
		{ActionAborted, "XDP_ABORTED"},
		{ActionDrop, "XDP_DROP"},
		{ActionPass, "XDP_PASS"},
		{ActionTX, "XDP_TX"},
		{ActionRedirect, "XDP_REDIRECT"},
	}

	for _, test := range tests {
		assert.Equal(t, test.name, test.action.String())

		parsed, err := ParseAction(test.name)
		require.NoError(t, err)
		assert.Equal(t, test.action, parsed)
	}
}

func TestParseActionUnknown(t *testing.T) {
	_, err := ParseAction("XDP_NOPE")
	assert.Error(t, err)

	_, err = ParseAction("xdp_pass")
	assert.Error(t, err)
}

func TestChainCallMask(t *testing.T) {
	var mask ChainCallMask

	mask.Set(ActionPass, true)
	mask.Set(ActionDrop, true)
	assert.True(t, mask.Enabled(ActionPass))
	assert.True(t, mask.Enabled(ActionDrop))
	assert.False(t, mask.Enabled(ActionAborted))

	mask.Set(ActionDrop, false)
	assert.False(t, mask.Enabled(ActionDrop))
	assert.True(t, mask.Enabled(ActionPass))

	// Disabling a clear bit is a no-op.
	mask.Set(ActionTX, false)
	assert.Equal(t, ChainCallMask(1<<ActionPass), mask)
}

func TestChainCallMaskDefaults(t *testing.T) {
	assert.True(t, DefaultChainCallMask.Enabled(ActionPass))
	assert.False(t, DefaultChainCallMask.Enabled(ActionAborted))
	assert.False(t, DefaultChainCallMask.Enabled(ActionDrop))
	assert.False(t, DefaultChainCallMask.Enabled(ActionTX))
	assert.False(t, DefaultChainCallMask.Enabled(ActionRedirect))
}

func TestChainCallMaskString(t *testing.T) {
	var mask ChainCallMask
	assert.Equal(t, "", mask.String())

	mask.Set(ActionDrop, true)
	mask.Set(ActionPass, true)
	assert.Equal(t, "XDP_DROP,XDP_PASS", mask.String())
}
