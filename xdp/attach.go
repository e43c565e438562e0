package xdp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cilium/ebpf"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"github.com/canonical/go-xdp/bpffs"
	"github.com/canonical/go-xdp/shared/logger"
)

// Mode selects how an XDP program is bound to an interface.
type Mode int

// Attach modes.
const (
	ModeUnspec Mode = iota
	ModeSKB
	ModeNative
	ModeHW
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSKB:
		return "skb"
	case ModeNative:
		return "native"
	case ModeHW:
		return "hw"
	default:
		return "unspecified"
	}
}

// ParseMode converts a mode name to its value.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "unspecified":
		return ModeUnspec, nil
	case "skb":
		return ModeSKB, nil
	case "native":
		return ModeNative, nil
	case "hw":
		return ModeHW, nil
	}

	return 0, fmt.Errorf("Unknown attach mode %q", name)
}

// flags returns the kernel XDP flags for the mode. ModeUnspec sends none.
func (m Mode) flags() int {
	switch m {
	case ModeSKB:
		return nl.XDP_FLAGS_SKB_MODE
	case ModeNative:
		return nl.XDP_FLAGS_DRV_MODE
	case ModeHW:
		return nl.XDP_FLAGS_HW_MODE
	default:
		return 0
	}
}

// Attach installs the given programs on the interface. A single program is
// attached directly; multiple programs are composed into a dispatcher whose
// per-component attachments are pinned on the BPF filesystem before the
// interface is touched. With force set, an already installed program is
// replaced, flipping between SKB and native mode when the kernel rejects
// the in-place update.
func Attach(progs []*Program, ifindex int, force bool, mode Mode) error {
	if len(progs) < 1 {
		return ErrEmptyChain
	}

	var fd int

	if len(progs) == 1 {
		p := progs[0]
		if !p.IsLoaded() {
			err := p.Load()
			if err != nil {
				return err
			}
		}

		fd = p.prog.FD()
	} else {
		dispatcher, err := Compose(progs)
		if err != nil {
			return err
		}

		defer dispatcher.Close()

		err = Pin(dispatcher, progs)
		if err != nil {
			return err
		}

		fd = dispatcher.Program().FD()
	}

	return attachFd(fd, ifindex, force, mode)
}

// attachFd issues the interface program swap, recovering from an
// incompatible-mode binding when the caller asked to force the replacement.
func attachFd(fd int, ifindex int, force bool, mode Mode) error {
	iface, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return fmt.Errorf("Failed to get interface %d: %w", ifindex, err)
	}

	flags := mode.flags()
	if !force {
		flags |= nl.XDP_FLAGS_UPDATE_IF_NOEXIST
	}

	err = netlink.LinkSetXdpFdWithFlags(iface, fd, flags)
	if err != nil && errors.Is(err, unix.EEXIST) && force {
		// The installed program was attached in a different mode, so the
		// in-place replace was refused. Detach it using the other mode,
		// then retry the original request.
		flipped := flags &^ nl.XDP_FLAGS_MODES
		if flags&nl.XDP_FLAGS_SKB_MODE != 0 {
			flipped |= nl.XDP_FLAGS_DRV_MODE
		} else {
			flipped |= nl.XDP_FLAGS_SKB_MODE
		}

		err = netlink.LinkSetXdpFdWithFlags(iface, -1, flipped)
		if err == nil {
			err = netlink.LinkSetXdpFdWithFlags(iface, fd, flags)
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, unix.EBUSY), errors.Is(err, unix.EEXIST):
			logger.Error("XDP program already loaded on interface; use force to replace it", logger.Ctx{"ifindex": ifindex})
		case errors.Is(err, unix.EOPNOTSUPP):
			logger.Error("Native XDP not supported on interface; try SKB mode", logger.Ctx{"ifindex": ifindex})
		default:
			logger.Error("Error attaching XDP program", logger.Ctx{"ifindex": ifindex, "err": err})
		}

		return fmt.Errorf("Failed to attach program to interface %d: %w", ifindex, err)
	}

	return nil
}

// AttachOne inserts a single program into the chain already installed on
// the interface. The kernel support this needs isn't available yet, so it
// only reports ErrNotSupported for now.
func AttachOne(prog *Program, ifindex int, mode Mode) error {
	return ErrNotSupported
}

// dispatchDirName forms the pin directory name for a dispatcher id.
func dispatchDirName(id ebpf.ProgramID) string {
	return fmt.Sprintf("dispatch-%d", id)
}

// linkPinName forms the pin file name for a chain slot.
func linkPinName(i int) string {
	return fmt.Sprintf("link-prog%d", i)
}

// Pin persists the per-component dispatcher attachments under the managed
// directory so they outlive the installing process. On any failure the
// pins created so far are removed again, walking backwards; the dispatch
// directory itself is kept for Detach to remove.
func Pin(dispatcher *Dispatcher, progs []*Program) error {
	dir, err := bpffs.ManagedDir()
	if err != nil {
		return err
	}

	id, err := dispatcher.ID()
	if err != nil {
		return err
	}

	lock, err := bpffs.AcquireLock()
	if err != nil {
		return err
	}

	defer lock.Unlock()

	pinPath := filepath.Join(dir, dispatchDirName(id))
	err = os.Mkdir(pinPath, 0700)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("Failed to create %q: %w", pinPath, err)
	}

	rollback := func(upto int) {
		for j := upto - 1; j >= 0; j-- {
			_ = progs[j].attachLnk.Unpin()
			progs[j].pinPath = ""
		}
	}

	for i, p := range progs {
		if p.attachLnk == nil {
			rollback(i)
			return fmt.Errorf("%w: %q", ErrNotAttached, p.name)
		}

		err := p.attachLnk.Pin(filepath.Join(pinPath, linkPinName(i)))
		if err != nil {
			rollback(i)
			return fmt.Errorf("Failed to pin %q: %w", p.name, err)
		}

		p.pinPath = pinPath
	}

	logger.Debug("Pinned dispatcher chain", logger.Ctx{"path": pinPath, "programs": len(progs)})

	return nil
}

// Detach removes the dispatcher's pinned attachments and their directory.
// A missing directory is reported, not ignored.
func Detach(dispatcher *Dispatcher) error {
	id, err := dispatcher.ID()
	if err != nil {
		return err
	}

	return DetachByID(id)
}

// DetachByID removes the pinned attachments of the dispatcher with the
// given kernel id.
func DetachByID(id ebpf.ProgramID) error {
	dir, err := bpffs.ManagedDir()
	if err != nil {
		return err
	}

	lock, err := bpffs.AcquireLock()
	if err != nil {
		return err
	}

	defer lock.Unlock()

	pinPath := filepath.Join(dir, dispatchDirName(id))

	entries, err := os.ReadDir(pinPath)
	if err != nil {
		return fmt.Errorf("Failed to read %q: %w", pinPath, err)
	}

	for _, entry := range entries {
		err := os.Remove(filepath.Join(pinPath, entry.Name()))
		if err != nil {
			return fmt.Errorf("Failed to unpin %q: %w", entry.Name(), err)
		}
	}

	err = os.Remove(pinPath)
	if err != nil {
		return fmt.Errorf("Failed to remove %q: %w", pinPath, err)
	}

	return nil
}

// Unload removes whatever XDP program the interface has attached in the
// given mode.
func Unload(ifindex int, mode Mode) error {
	iface, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return fmt.Errorf("Failed to get interface %d: %w", ifindex, err)
	}

	err = netlink.LinkSetXdpFdWithFlags(iface, -1, mode.flags())
	if err != nil {
		return fmt.Errorf("Failed to detach program from interface %d: %w", ifindex, err)
	}

	return nil
}

// Query returns a handle for the program currently attached to the
// interface. When that program is a dispatcher it is returned as-is;
// recovering the component chain from an installed dispatcher isn't
// supported yet.
func Query(ifindex int) (*Program, error) {
	iface, err := netlink.LinkByIndex(ifindex)
	if err != nil {
		return nil, fmt.Errorf("Failed to get interface %d: %w", ifindex, err)
	}

	xdp := iface.Attrs().Xdp
	if xdp == nil || !xdp.Attached {
		return nil, ErrNoProgramAttached
	}

	return FromID(ebpf.ProgramID(xdp.ProgId))
}
