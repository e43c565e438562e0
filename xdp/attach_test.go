package xdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink/nl"
)

func TestModeRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeUnspec, ModeSKB, ModeNative, ModeHW} {
		parsed, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	parsed, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeUnspec, parsed)

	_, err = ParseMode("turbo")
	assert.Error(t, err)
}

func TestModeFlags(t *testing.T) {
	assert.Equal(t, 0, ModeUnspec.flags())
	assert.Equal(t, nl.XDP_FLAGS_SKB_MODE, ModeSKB.flags())
	assert.Equal(t, nl.XDP_FLAGS_DRV_MODE, ModeNative.flags())
	assert.Equal(t, nl.XDP_FLAGS_HW_MODE, ModeHW.flags())
}

func TestPinNames(t *testing.T) {
	assert.Equal(t, "dispatch-42", dispatchDirName(42))
	assert.Equal(t, "link-prog0", linkPinName(0))
	assert.Equal(t, "link-prog9", linkPinName(9))
}

func TestAttachEmptyChain(t *testing.T) {
	err := Attach(nil, 1, false, ModeUnspec)
	assert.ErrorIs(t, err, ErrEmptyChain)
}

func TestAttachOneUnsupported(t *testing.T) {
	err := AttachOne(NewProgram(), 1, ModeUnspec)
	assert.ErrorIs(t, err, ErrNotSupported)
}
