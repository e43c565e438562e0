package xdp

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/btf"
	"github.com/cilium/ebpf/link"

	"github.com/canonical/go-xdp/shared/logger"
)

// Program represents one component XDP program, either still inside an
// object file or already loaded into the kernel. A Program owns the kernel
// resources it holds and releases them exactly once through Close.
type Program struct {
	name string

	spec     *ebpf.CollectionSpec
	progSpec *ebpf.ProgramSpec

	coll      *ebpf.Collection
	prog      *ebpf.Program
	attachLnk link.Link

	btfSpec   *btf.Spec
	btfHandle *btf.Handle

	pinPath  string
	tag      string
	loadTime time.Duration

	runPriority   uint32
	chainCallMask ChainCallMask
}

// NewProgram returns an empty program handle with default priority and
// chain-call policy.
func NewProgram() *Program {
	return &Program{
		runPriority:   DefaultRunPriority,
		chainCallMask: DefaultChainCallMask,
	}
}

// FromObject binds a handle to one program inside an already parsed object.
// An empty progName selects the object's first program (lexically, for a
// deterministic pick across runs). When external is true the caller
// retains ownership of spec and a private copy is taken.
func FromObject(spec *ebpf.CollectionSpec, progName string, external bool) (*Program, error) {
	if external {
		spec = spec.Copy()
	}

	progSpec, err := findProgramSpec(spec, progName)
	if err != nil {
		return nil, err
	}

	p := NewProgram()
	p.name = progSpec.Name
	p.spec = spec
	p.progSpec = progSpec
	p.btfSpec = spec.Types

	err = p.refreshRunConfig()
	if err != nil {
		return nil, err
	}

	return p, nil
}

// FromFile opens an object file and binds a handle to the named program
// inside it. An empty progName selects the object's first program.
func FromFile(path string, progName string) (*Program, error) {
	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to open object %q: %w", path, err)
	}

	return FromObject(spec, progName, false)
}

// FromID binds a handle to an already loaded program, refreshing its
// identity and run config from the kernel.
func FromID(id ebpf.ProgramID) (*Program, error) {
	prog, err := ebpf.NewProgramFromID(id)
	if err != nil {
		return nil, fmt.Errorf("Failed to get program %d: %w", id, err)
	}

	p := NewProgram()
	p.prog = prog

	err = p.refreshInfo()
	if err != nil {
		p.Close()
		return nil, err
	}

	err = p.refreshRunConfig()
	if err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// findProgramSpec resolves progName within the object. An empty progName
// selects the program whose name sorts first; the order in which programs
// are declared in the object is not consulted.
func findProgramSpec(spec *ebpf.CollectionSpec, progName string) (*ebpf.ProgramSpec, error) {
	if len(spec.Programs) == 0 {
		return nil, ErrProgramNotFound
	}

	if progName == "" {
		names := make([]string, 0, len(spec.Programs))
		for name := range spec.Programs {
			names = append(names, name)
		}

		sort.Strings(names)
		return spec.Programs[names[0]], nil
	}

	progSpec, ok := spec.Programs[progName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProgramNotFound, progName)
	}

	return progSpec, nil
}

// refreshInfo pulls identity from the kernel for a loaded program.
func (p *Program) refreshInfo() error {
	info, err := p.prog.Info()
	if err != nil {
		return fmt.Errorf("Failed to get program info: %w", err)
	}

	if p.name == "" {
		p.name = info.Name
	}

	p.tag = info.Tag

	loadTime, ok := info.LoadTime()
	if ok {
		p.loadTime = loadTime
	}

	if p.btfSpec == nil {
		btfID, ok := info.BTFID()
		if ok {
			handle, err := btf.NewHandleFromID(btfID)
			if err != nil {
				return fmt.Errorf("Failed to get program BTF: %w", err)
			}

			spec, err := handle.Spec(nil)
			if err != nil {
				_ = handle.Close()
				return fmt.Errorf("Failed to parse program BTF: %w", err)
			}

			p.btfHandle = handle
			p.btfSpec = spec
		}
	}

	return nil
}

// refreshRunConfig re-parses the embedded run config. A missing config
// leaves the defaults in place.
func (p *Program) refreshRunConfig() error {
	config, err := parseRunConfig(p.btfSpec, p.name)
	if err != nil {
		if errors.Is(err, ErrNoRunConfig) {
			logger.Debug("Program has no run config, using defaults", logger.Ctx{"program": p.name})
			return nil
		}

		return err
	}

	p.runPriority = config.priority
	p.chainCallMask = config.chainCall

	return nil
}

// Load loads the program's object into the kernel and refreshes the
// handle's identity from it.
func (p *Program) Load() error {
	if p.prog != nil {
		return ErrAlreadyLoaded
	}

	if p.spec == nil || p.progSpec == nil {
		return ErrNoObject
	}

	coll, err := ebpf.NewCollection(p.spec)
	if err != nil {
		return fmt.Errorf("Failed to load object for %q: %w", p.name, err)
	}

	prog, ok := coll.Programs[p.name]
	if !ok {
		coll.Close()
		return fmt.Errorf("%w: %q vanished on load", ErrProgramNotFound, p.name)
	}

	p.coll = coll
	p.prog = prog

	return p.refreshInfo()
}

// Close releases the kernel resources owned by the handle: the dispatcher
// attachment first, then the program itself. Filesystem pins are left in
// place; they belong to whoever detaches the dispatcher.
func (p *Program) Close() {
	if p.attachLnk != nil {
		_ = p.attachLnk.Close()
		p.attachLnk = nil
	}

	if p.coll != nil {
		// The collection owns the program descriptor.
		p.coll.Close()
		p.coll = nil
		p.prog = nil
	} else if p.prog != nil {
		_ = p.prog.Close()
		p.prog = nil
	}

	if p.btfHandle != nil {
		_ = p.btfHandle.Close()
		p.btfHandle = nil
	}
}

// Name returns the program's symbol name.
func (p *Program) Name() string {
	return p.name
}

// Tag returns the kernel's content digest of the loaded program.
func (p *Program) Tag() string {
	return p.tag
}

// IsLoaded reports whether the program is loaded into the kernel.
func (p *Program) IsLoaded() bool {
	return p.prog != nil
}

// Loaded returns the loaded kernel program, or nil.
func (p *Program) Loaded() *ebpf.Program {
	return p.prog
}

// ID returns the kernel id of the loaded program.
func (p *Program) ID() (ebpf.ProgramID, error) {
	if p.prog == nil {
		return 0, ErrNoObject
	}

	info, err := p.prog.Info()
	if err != nil {
		return 0, fmt.Errorf("Failed to get program info: %w", err)
	}

	id, ok := info.ID()
	if !ok {
		return 0, errors.New("Kernel doesn't report program ids")
	}

	return id, nil
}

// RunPriority returns the program's position weight in the chain.
func (p *Program) RunPriority() uint32 {
	return p.runPriority
}

// SetRunPriority overrides the priority declared by the program.
func (p *Program) SetRunPriority(priority uint32) {
	p.runPriority = priority
}

// ChainCallMask returns the actions on which the chain continues past this
// program.
func (p *Program) ChainCallMask() ChainCallMask {
	return p.chainCallMask
}

// SetChainCallEnabled overrides the declared chain-call policy for one
// action.
func (p *Program) SetChainCallEnabled(action Action, enable bool) {
	p.chainCallMask.Set(action, enable)
}

// PinPath returns the directory this program's attachment is pinned under,
// if any.
func (p *Program) PinPath() string {
	return p.pinPath
}

// LoadTime returns the kernel timestamp of when the program was loaded.
func (p *Program) LoadTime() time.Duration {
	return p.loadTime
}

// IsDispatcher reports whether the program is a chain dispatcher.
func (p *Program) IsDispatcher() bool {
	return p.name == DispatcherProgName
}
