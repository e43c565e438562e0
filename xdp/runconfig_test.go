package xdp

import (
	"testing"

	"github.com/cilium/ebpf/btf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configArray builds the pointer-to-array encoding used by the run config:
// the array length carries the value.
func configArray(nelems uint32) btf.Type {
	return &btf.Pointer{Target: &btf.Array{Index: &btf.Int{}, Type: &btf.Int{}, Nelems: nelems}}
}

func configSection(progName string, linkage btf.VarLinkage, size uint32, members []btf.Member) *btf.Datasec {
	configStruct := &btf.Struct{Name: "cfg", Size: size, Members: members}

	return &btf.Datasec{
		Name: runConfigSection,
		Size: size,
		Vars: []btf.VarSecinfo{{
			Type:   &btf.Var{Name: "_" + progName, Type: configStruct, Linkage: linkage},
			Offset: 0,
			Size:   size,
		}},
	}
}

func TestParseRunConfig(t *testing.T) {
	section := configSection("xdp_filter", btf.GlobalVar, 24, []btf.Member{
		{Name: "priority", Type: configArray(17)},
		{Name: "XDP_PASS", Type: configArray(1)},
		{Name: "XDP_DROP", Type: configArray(0)},
	})

	config, err := parseRunConfigSection(section, "xdp_filter")
	require.NoError(t, err)
	assert.Equal(t, uint32(17), config.priority)
	assert.True(t, config.chainCall.Enabled(ActionPass))
	assert.False(t, config.chainCall.Enabled(ActionDrop))
	assert.False(t, config.chainCall.Enabled(ActionAborted))
}

func TestParseRunConfigDefaults(t *testing.T) {
	// A config declaring nothing keeps the defaults.
	section := configSection("xdp_filter", btf.StaticVar, 8, []btf.Member{})

	config, err := parseRunConfigSection(section, "xdp_filter")
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultRunPriority), config.priority)
	assert.Equal(t, DefaultChainCallMask, config.chainCall)
}

func TestParseRunConfigModifiers(t *testing.T) {
	// Modifiers and typedefs around the struct and the members resolve.
	inner := &btf.Struct{Name: "cfg", Size: 8, Members: []btf.Member{
		{Name: "priority", Type: &btf.Const{Type: configArray(3)}},
	}}
	wrapped := &btf.Typedef{Name: "cfg_t", Type: &btf.Volatile{Type: inner}}

	section := &btf.Datasec{
		Name: runConfigSection,
		Size: 8,
		Vars: []btf.VarSecinfo{{
			Type: &btf.Var{Name: "_xdp_filter", Type: wrapped, Linkage: btf.GlobalVar},
			Size: 8,
		}},
	}

	config, err := parseRunConfigSection(section, "xdp_filter")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), config.priority)
}

func TestParseRunConfigMissing(t *testing.T) {
	section := configSection("xdp_other", btf.GlobalVar, 8, []btf.Member{
		{Name: "priority", Type: configArray(1)},
	})

	// The section exists but has no variable for this program.
	_, err := parseRunConfigSection(section, "xdp_filter")
	assert.ErrorIs(t, err, ErrNoRunConfig)

	// No BTF at all.
	_, err = parseRunConfig(nil, "xdp_filter")
	assert.ErrorIs(t, err, ErrNoRunConfig)
}

func TestParseRunConfigMalformed(t *testing.T) {
	tests := []struct {
		name    string
		section *btf.Datasec
	}{
		{
			name: "extern linkage",
			section: configSection("p", btf.ExternVar, 8, []btf.Member{
				{Name: "priority", Type: configArray(1)},
			}),
		},
		{
			name: "variable is not a struct",
			section: &btf.Datasec{
				Name: runConfigSection,
				Size: 8,
				Vars: []btf.VarSecinfo{{
					Type: &btf.Var{Name: "_p", Type: &btf.Int{}, Linkage: btf.GlobalVar},
					Size: 8,
				}},
			},
		},
		{
			name: "struct larger than section entry",
			section: configSection("p", btf.GlobalVar, 8, []btf.Member{
				{Name: "priority", Type: configArray(1)},
			}),
		},
		{
			name: "member is not a pointer",
			section: configSection("p", btf.GlobalVar, 8, []btf.Member{
				{Name: "priority", Type: &btf.Int{}},
			}),
		},
		{
			name: "member doesn't point to an array",
			section: configSection("p", btf.GlobalVar, 8, []btf.Member{
				{Name: "priority", Type: &btf.Pointer{Target: &btf.Int{}}},
			}),
		},
		{
			name: "unknown member",
			section: configSection("p", btf.GlobalVar, 8, []btf.Member{
				{Name: "XDP_NOPE", Type: configArray(1)},
			}),
		},
	}

	// Oversize the struct for the dedicated case.
	tests[2].section.Vars[0].Size = 4

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := parseRunConfigSection(test.section, "p")
			assert.ErrorIs(t, err, ErrMalformedConfig)
		})
	}
}
