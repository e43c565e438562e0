package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/canonical/go-xdp/xdp"
)

type cmdStatus struct {
	global *cmdGlobal

	flagFormat string
}

type statusEntry struct {
	Name       string `json:"name" yaml:"name"`
	ID         uint32 `json:"id" yaml:"id"`
	Tag        string `json:"tag" yaml:"tag"`
	Priority   uint32 `json:"priority" yaml:"priority"`
	ChainCall  string `json:"chain_call_actions" yaml:"chain_call_actions"`
	Dispatcher bool   `json:"dispatcher" yaml:"dispatcher"`
}

func (c *cmdStatus) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "status <interface>"
	cmd.Short = "Show the XDP program installed on an interface"
	cmd.RunE = c.Run

	cmd.Flags().StringVarP(&c.flagFormat, "format", "f", "table", "Format (csv|json|table|yaml)"+"``")

	return cmd
}

func (c *cmdStatus) Run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("Missing required arguments")
	}

	iface, err := net.InterfaceByName(args[0])
	if err != nil {
		return fmt.Errorf("Failed to find interface %q: %w", args[0], err)
	}

	prog, err := xdp.Query(iface.Index)
	if err != nil {
		if errors.Is(err, xdp.ErrNoProgramAttached) {
			fmt.Printf("No XDP program on %s\n", iface.Name)
			return nil
		}

		return err
	}

	defer prog.Close()

	id, err := prog.ID()
	if err != nil {
		return err
	}

	entry := statusEntry{
		Name:       prog.Name(),
		ID:         uint32(id),
		Tag:        prog.Tag(),
		Priority:   prog.RunPriority(),
		ChainCall:  prog.ChainCallMask().String(),
		Dispatcher: prog.IsDispatcher(),
	}

	header := []string{"NAME", "ID", "TAG", "PRIORITY", "CHAIN CALL ACTIONS", "DISPATCHER"}
	data := [][]string{{
		entry.Name,
		strconv.FormatUint(uint64(entry.ID), 10),
		entry.Tag,
		strconv.FormatUint(uint64(entry.Priority), 10),
		entry.ChainCall,
		strconv.FormatBool(entry.Dispatcher),
	}}

	return renderTable(c.flagFormat, header, data, []statusEntry{entry})
}
