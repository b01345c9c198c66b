package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xaitan80/fileserve/internal/probe"
)

var (
	fetchAddr    string
	fetchBody    bool
	fetchTimeout time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <path>",
	Short: "Request a path from a running server and print the response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), fetchTimeout)
		defer cancel()

		res, err := probe.Fetch(ctx, fetchAddr, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s %d %s\n", res.Proto, int(res.Status), res.Reason)
		tbl := table.NewWriter()
		tbl.SetStyle(table.Style{
			Box: table.BoxStyle{PaddingRight: "   "},
		})
		tbl.SetOutputMirror(os.Stdout)
		tbl.AppendHeader(table.Row{"HEADER", "VALUE"})
		for _, h := range res.Headers {
			tbl.AppendRow(table.Row{h.Name, h.Value})
		}
		tbl.Render()

		if fetchBody {
			fmt.Println()
			_, err := os.Stdout.Write(res.Body)
			return err
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchAddr, "addr", "127.0.0.1:5500", "address of the server")
	fetchCmd.Flags().BoolVar(&fetchBody, "body", false, "print the response body")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 10*time.Second, "time allowed for the whole exchange")
}
