package xdp

import (
	"fmt"

	"github.com/cilium/ebpf/btf"
)

// runConfigSection is the data section carrying the declarative run config
// of each XDP program in an object.
const runConfigSection = ".xdp_run_config"

// runConfig is the priority and chain-call policy declared by a program.
type runConfig struct {
	priority  uint32
	chainCall ChainCallMask
}

// parseRunConfig extracts the run config of the named program from its BTF.
// It returns ErrNoRunConfig when the BTF, the section or the program's
// config variable is missing, and ErrMalformedConfig when the variable
// doesn't match the expected shape.
func parseRunConfig(spec *btf.Spec, progName string) (*runConfig, error) {
	if spec == nil {
		return nil, ErrNoRunConfig
	}

	var section *btf.Datasec
	err := spec.TypeByName(runConfigSection, &section)
	if err != nil {
		return nil, ErrNoRunConfig
	}

	return parseRunConfigSection(section, progName)
}

// parseRunConfigSection scans the run config data section for the variable
// describing the named program.
func parseRunConfigSection(section *btf.Datasec, progName string) (*runConfig, error) {
	varName := "_" + progName

	for _, secInfo := range section.Vars {
		configVar, ok := secInfo.Type.(*btf.Var)
		if !ok || configVar.Name != varName {
			continue
		}

		return parseRunConfigVar(configVar, secInfo.Size)
	}

	return nil, ErrNoRunConfig
}

func parseRunConfigVar(configVar *btf.Var, maxSize uint32) (*runConfig, error) {
	if configVar.Linkage != btf.GlobalVar && configVar.Linkage != btf.StaticVar {
		return nil, fmt.Errorf("%w: Variable %q has unsupported linkage", ErrMalformedConfig, configVar.Name)
	}

	configStruct, ok := skipModsAndTypedefs(configVar.Type).(*btf.Struct)
	if !ok {
		return nil, fmt.Errorf("%w: Variable %q is not a struct", ErrMalformedConfig, configVar.Name)
	}

	if configStruct.Size > maxSize {
		return nil, fmt.Errorf("%w: Struct %q larger than its section entry", ErrMalformedConfig, configVar.Name)
	}

	config := &runConfig{
		priority:  DefaultRunPriority,
		chainCall: DefaultChainCallMask,
	}

	for _, member := range configStruct.Members {
		pointer, ok := skipModsAndTypedefs(member.Type).(*btf.Pointer)
		if !ok {
			return nil, fmt.Errorf("%w: Member %q is not a pointer", ErrMalformedConfig, member.Name)
		}

		array, ok := skipModsAndTypedefs(pointer.Target).(*btf.Array)
		if !ok {
			return nil, fmt.Errorf("%w: Member %q doesn't point to an array", ErrMalformedConfig, member.Name)
		}

		if member.Name == "priority" {
			config.priority = array.Nelems
			continue
		}

		action, err := ParseAction(member.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: Unexpected member %q", ErrMalformedConfig, member.Name)
		}

		config.chainCall.Set(action, array.Nelems != 0)
	}

	return config, nil
}

// skipModsAndTypedefs resolves a BTF type through any modifiers and aliases.
func skipModsAndTypedefs(typ btf.Type) btf.Type {
	for {
		switch t := typ.(type) {
		case *btf.Typedef:
			typ = t.Type
		case *btf.Volatile:
			typ = t.Type
		case *btf.Const:
			typ = t.Type
		case *btf.Restrict:
			typ = t.Type
		default:
			return typ
		}
	}
}
