package xdp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"

	"github.com/canonical/go-xdp/shared/logger"
)

// MaxDispatcherPrograms is the number of component slots in the dispatcher
// template.
const MaxDispatcherPrograms = 10

// DispatcherProgName is the entry symbol of the dispatcher template.
const DispatcherProgName = "xdp_dispatcher"

// dispatcherObjectName is the shipped dispatcher template object.
const dispatcherObjectName = "xdp-dispatcher.o"

// dispatcherConfigName is the read-only config variable inside the template.
const dispatcherConfigName = "conf"

// dispatcherConfig mirrors the template's read-only data section.
type dispatcherConfig struct {
	NumProgsEnabled  uint32
	ChainCallActions [MaxDispatcherPrograms]uint32
}

// Dispatcher is a loaded dispatcher program with components grafted onto
// its slots.
type Dispatcher struct {
	coll *ebpf.Collection
	prog *ebpf.Program
}

// compareProgs is the canonical chain ordering. It returns a negative,
// zero or positive value like strings.Compare.
func compareProgs(a *Program, b *Program) int {
	if a.runPriority != b.runPriority {
		if a.runPriority < b.runPriority {
			return -1
		}

		return 1
	}

	c := strings.Compare(a.name, b.name)
	if c != 0 {
		return c
	}

	// Loaded programs sort before unloaded ones.
	if a.IsLoaded() != b.IsLoaded() {
		if a.IsLoaded() {
			return -1
		}

		return 1
	}

	if !a.IsLoaded() && a.progSpec != nil && b.progSpec != nil {
		aSize := len(a.progSpec.Instructions)
		bSize := len(b.progSpec.Instructions)
		if aSize != bSize {
			if aSize < bSize {
				return -1
			}

			return 1
		}
	}

	c = strings.Compare(a.tag, b.tag)
	if c != 0 {
		return c
	}

	if a.loadTime != b.loadTime {
		if a.loadTime < b.loadTime {
			return -1
		}

		return 1
	}

	return 0
}

// SortChain orders programs into their canonical dispatcher sequence. The
// sort is stable, so repeated sorting is idempotent.
func SortChain(progs []*Program) {
	sort.SliceStable(progs, func(i, j int) bool {
		return compareProgs(progs[i], progs[j]) < 0
	})
}

// Compose sorts the programs into their canonical order, synthesizes a
// dispatcher embedding their chain-call policy and grafts each program onto
// its slot as a function-replacement extension.
//
// Compose doesn't roll back on failure: partially loaded components keep
// their descriptors and remain the caller's to close.
func Compose(progs []*Program) (*Dispatcher, error) {
	if len(progs) == 0 {
		return nil, ErrEmptyChain
	}

	if len(progs) > MaxDispatcherPrograms {
		return nil, fmt.Errorf("%w: %d > %d", ErrChainTooLong, len(progs), MaxDispatcherPrograms)
	}

	SortChain(progs)

	path, err := findObjectFile(dispatcherObjectName)
	if err != nil {
		return nil, err
	}

	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open dispatcher template %q: %w", path, err)
	}

	config := dispatcherConfig{NumProgsEnabled: uint32(len(progs))}
	for i, p := range progs {
		config.ChainCallActions[i] = uint32(p.chainCallMask)
	}

	err = patchDispatcherConfig(spec, config)
	if err != nil {
		return nil, err
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, fmt.Errorf("Failed to load dispatcher: %w", err)
	}

	dispProg, ok := coll.Programs[DispatcherProgName]
	if !ok {
		coll.Close()
		return nil, fmt.Errorf("%w: %q", ErrProgramNotFound, DispatcherProgName)
	}

	d := &Dispatcher{coll: coll, prog: dispProg}

	for i, p := range progs {
		err := d.graft(p, i)
		if err != nil {
			// Partially loaded components keep their descriptors for the
			// caller to close; the failed dispatcher is ours to release.
			d.Close()
			return nil, err
		}
	}

	logger.Debug("Composed dispatcher", logger.Ctx{"programs": len(progs)})

	return d, nil
}

// patchDispatcherConfig validates the template's read-only section against
// the expected schema and writes the chain config into it.
func patchDispatcherConfig(spec *ebpf.CollectionSpec, config dispatcherConfig) error {
	rodata, ok := spec.Maps[".rodata"]
	if !ok {
		return fmt.Errorf("%w: Dispatcher template has no read-only data", ErrMalformedConfig)
	}

	if rodata.ValueSize != uint32(binary.Size(config)) {
		return fmt.Errorf("%w: Dispatcher config is %d bytes, expected %d", ErrMalformedConfig, rodata.ValueSize, binary.Size(config))
	}

	err := spec.RewriteConstants(map[string]interface{}{dispatcherConfigName: config})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}

	return nil
}

// graft loads prog as a function-replacement extension anchored to slot i
// of the dispatcher and opens the link that materializes the binding.
func (d *Dispatcher) graft(p *Program, i int) error {
	if p.progSpec == nil {
		return fmt.Errorf("%w: %q", ErrNoObject, p.name)
	}

	slot := fmt.Sprintf("prog%d", i)
	p.progSpec.Type = ebpf.Extension
	p.progSpec.AttachTarget = d.prog
	p.progSpec.AttachTo = slot

	err := p.Load()
	if err != nil {
		return fmt.Errorf("Failed to load %q into slot %q: %w", p.name, slot, err)
	}

	lnk, err := link.AttachFreplace(nil, "", p.prog)
	if err != nil {
		return fmt.Errorf("Failed to attach %q to slot %q: %w", p.name, slot, err)
	}

	p.attachLnk = lnk

	return nil
}

// Program returns the loaded dispatcher program.
func (d *Dispatcher) Program() *ebpf.Program {
	return d.prog
}

// ID returns the kernel id of the dispatcher program.
func (d *Dispatcher) ID() (ebpf.ProgramID, error) {
	info, err := d.prog.Info()
	if err != nil {
		return 0, fmt.Errorf("Failed to get dispatcher info: %w", err)
	}

	id, ok := info.ID()
	if !ok {
		return 0, errors.New("Kernel doesn't report program ids")
	}

	return id, nil
}

// Close releases the dispatcher's kernel resources. Components attached to
// it stay alive through their own links and pins.
func (d *Dispatcher) Close() {
	if d.coll != nil {
		d.coll.Close()
		d.coll = nil
		d.prog = nil
	}
}
