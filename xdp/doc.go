// Package xdp manages multiple XDP programs on a single network interface.
//
// The kernel offers one XDP attachment point per interface. To let
// independent programs coexist there, this package composes them into a
// chain: a generated dispatcher program calls each component in priority
// order and consults a per-component chain-call mask to decide, based on
// the component's return code, whether to run the next one or stop.
//
// Components declare their priority and chain-call policy in the
// .xdp_run_config BTF section of their object, so an already loaded program
// can be re-ordered without any external state. Per-component attachments
// are pinned under the managed directory on the BPF filesystem, keeping the
// chain alive after the installing process exits. Installation across
// processes is serialized with an advisory lock on that directory.
package xdp
