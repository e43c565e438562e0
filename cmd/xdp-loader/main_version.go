package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/go-xdp/shared/version"
)

type cmdVersion struct {
	global *cmdGlobal
}

func (c *cmdVersion) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "version"
	cmd.Short = "Show the xdp-loader version"
	cmd.RunE = c.Run

	return cmd
}

func (c *cmdVersion) Run(cmd *cobra.Command, args []string) error {
	fmt.Println(version.Version)

	return nil
}
