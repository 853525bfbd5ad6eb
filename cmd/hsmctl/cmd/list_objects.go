package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/riftlabs/yubihsm-go/commands"
)

var listObjectsType uint8

var listObjectsCmd = &cobra.Command{
	Use:   "list-objects",
	Short: "List every object visible to the session, optionally narrowed by --type",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := context.Background()
		cl, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Close(ctx)

		var filters []commands.ListFilter
		if c.Flags().Changed("type") {
			filters = append(filters, commands.FilterByType(commands.ObjectType(listObjectsType)))
		}

		entries, err := cl.ListObjects(ctx, filters...)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"ID", "Type", "Sequence"})
		for _, e := range entries {
			t.AppendRow(table.Row{fmt.Sprintf("0x%04x", e.ObjectID), e.ObjectType, e.Sequence})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	listObjectsCmd.Flags().Uint8Var(&listObjectsType, "type", 0, "restrict to one commands.ObjectType value")
}
