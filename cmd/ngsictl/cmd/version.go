package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joelanford/ngsi-client-go/client"
)

type versionInfo struct {
	Client string `json:"client" yaml:"client"`
	Broker string `json:"broker" yaml:"broker"`
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client and broker versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client(cmd)
			if err != nil {
				return err
			}
			v, err := c.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("broker version: %w", describe(err))
			}
			return o.printer(cmd).Print(versionInfo{Client: client.LibraryVersion, Broker: v.String()})
		},
	}
}
