package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var deviceInfoCmd = &cobra.Command{
	Use:   "device-info",
	Short: "Print firmware version, serial number, and supported algorithms",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := context.Background()
		cl, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Close(ctx)

		info, err := cl.DeviceInfo(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.AppendRow(table.Row{"Firmware", fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildVersion)})
		t.AppendRow(table.Row{"Serial", info.SerialNumber})
		t.AppendRow(table.Row{"Log store", fmt.Sprintf("%d/%d used", info.LogStoreUsed, info.LogStoreCapacity)})
		t.AppendRow(table.Row{"Algorithms", len(info.Algorithms)})
		fmt.Println(t.Render())
		return nil
	},
}
