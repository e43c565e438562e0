package xdp

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProg(name string, priority uint32) *Program {
	p := NewProgram()
	p.name = name
	p.runPriority = priority

	return p
}

func specOfLen(n int) *ebpf.ProgramSpec {
	insns := make(asm.Instructions, 0, n)
	for i := 0; i < n; i++ {
		insns = append(insns, asm.Return())
	}

	return &ebpf.ProgramSpec{Instructions: insns}
}

func TestCompareProgsPriority(t *testing.T) {
	a := testProg("b", 10)
	b := testProg("a", 20)

	assert.Negative(t, compareProgs(a, b))
	assert.Positive(t, compareProgs(b, a))
}

func TestCompareProgsName(t *testing.T) {
	a := testProg("aaa", 10)
	b := testProg("bbb", 10)

	assert.Negative(t, compareProgs(a, b))
	assert.Positive(t, compareProgs(b, a))
	assert.Zero(t, compareProgs(a, a))
}

func TestCompareProgsLoadedFirst(t *testing.T) {
	a := testProg("p", 10)
	b := testProg("p", 10)
	a.prog = &ebpf.Program{}

	assert.Negative(t, compareProgs(a, b))
	assert.Positive(t, compareProgs(b, a))
}

func TestCompareProgsSize(t *testing.T) {
	a := testProg("p", 10)
	b := testProg("p", 10)
	a.progSpec = specOfLen(2)
	b.progSpec = specOfLen(5)

	assert.Negative(t, compareProgs(a, b))
	assert.Positive(t, compareProgs(b, a))
}

func TestCompareProgsTagAndLoadTime(t *testing.T) {
	a := testProg("p", 10)
	b := testProg("p", 10)
	a.tag = "0123456789abcdef"
	b.tag = "fedcba9876543210"

	assert.Negative(t, compareProgs(a, b))

	b.tag = a.tag
	a.loadTime = time.Second
	b.loadTime = 2 * time.Second

	assert.Negative(t, compareProgs(a, b))

	b.loadTime = a.loadTime
	assert.Zero(t, compareProgs(a, b))
}

func TestSortChain(t *testing.T) {
	p1 := testProg("zz", 20)
	p2 := testProg("aa", 10)
	p3 := testProg("mm", 10)

	progs := []*Program{p1, p2, p3}
	SortChain(progs)

	require.Equal(t, []*Program{p2, p3, p1}, progs)

	// Sorting is idempotent.
	SortChain(progs)
	assert.Equal(t, []*Program{p2, p3, p1}, progs)
}

func TestDispatcherConfigLayout(t *testing.T) {
	// The template's read-only section is a u32 count followed by one u32
	// mask per slot.
	assert.Equal(t, 4+4*MaxDispatcherPrograms, binary.Size(dispatcherConfig{}))
}

func TestComposeBounds(t *testing.T) {
	_, err := Compose(nil)
	assert.ErrorIs(t, err, ErrEmptyChain)

	progs := make([]*Program, MaxDispatcherPrograms+1)
	for i := range progs {
		progs[i] = testProg("p", 10)
	}

	_, err = Compose(progs)
	assert.ErrorIs(t, err, ErrChainTooLong)
}
