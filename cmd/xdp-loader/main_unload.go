package main

import (
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/canonical/go-xdp/shared/logger"
	"github.com/canonical/go-xdp/xdp"
)

type cmdUnload struct {
	global *cmdGlobal

	flagMode string
}

func (c *cmdUnload) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "unload <interface>"
	cmd.Short = "Remove the XDP program from an interface"
	cmd.Long = `Description:
  Remove the XDP program from an interface

  When the installed program is a dispatcher, its pinned attachments are
  removed as well, releasing every program in the chain.
`
	cmd.RunE = c.Run

	cmd.Flags().StringVarP(&c.flagMode, "mode", "m", "", "Attach mode (skb|native|hw)"+"``")

	return cmd
}

func (c *cmdUnload) Run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("Missing required arguments")
	}

	iface, err := net.InterfaceByName(args[0])
	if err != nil {
		return fmt.Errorf("Failed to find interface %q: %w", args[0], err)
	}

	mode, err := xdp.ParseMode(c.flagMode)
	if err != nil {
		return err
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

	if prog.IsDispatcher() {
		id, err := prog.ID()
		if err != nil {
			return err
		}

		err = xdp.DetachByID(id)
		if err != nil {
			logger.Warn("Failed to remove pinned attachments", logger.Ctx{"err": err})
		}
	}

	err = xdp.Unload(iface.Index, mode)
	if err != nil {
		return err
	}

	fmt.Printf("Removed XDP program from %s\n", iface.Name)

	return nil
}
