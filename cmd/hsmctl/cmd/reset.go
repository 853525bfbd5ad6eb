package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Send ResetDevice; the local session is invalidated regardless of whether the reply arrives",
	RunE: func(c *cobra.Command, args []string) error {
		ctx := context.Background()
		cl, err := openClient(ctx)
		if err != nil {
			return err
		}
		if err := cl.ResetDevice(ctx); err != nil {
			return err
		}
		fmt.Println("device reset; session invalidated")
		return nil
	},
}
