package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/canonical/go-xdp/xdp"
)

type cmdLoad struct {
	global *cmdGlobal

	flagMode  string
	flagForce bool
}

func (c *cmdLoad) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "load <interface> <object>..."
	cmd.Short = "Install XDP programs on an interface"
	cmd.Long = `Description:
  Install XDP programs on an interface

  Each object file contributes the program whose name sorts first; the
  program type is not checked. With more than one
  program, a dispatcher chain is composed and its attachments are pinned
  on the BPF filesystem so they survive this process exiting.
`
	cmd.RunE = c.Run

	cmd.Flags().StringVarP(&c.flagMode, "mode", "m", "", "Attach mode (skb|native|hw)"+"``")
	cmd.Flags().BoolVarP(&c.flagForce, "force", "f", false, "Replace an already installed program")

	return cmd
}

func (c *cmdLoad) Run(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
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

	progs := make([]*xdp.Program, 0, len(args)-1)
	defer func() {
		for _, p := range progs {
			p.Close()
		}
	}()

	for _, path := range args[1:] {
		p, err := xdp.FromFile(path, "")
		if err != nil {
			return err
		}

		progs = append(progs, p)
	}

	err = xdp.Attach(progs, iface.Index, c.flagForce, mode)
	if err != nil {
		return err
	}

	fmt.Printf("Installed %d program(s) on %s\n", len(progs), iface.Name)

	return nil
}
