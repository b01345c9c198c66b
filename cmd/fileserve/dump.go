package main

import (
	"errors"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/xaitan80/fileserve/internal/log"
	"github.com/xaitan80/fileserve/internal/probe"
)

var dumpAddr string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Accept connections and print whatever clients send, line by line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		ln, err := net.Listen("tcp", dumpAddr)
		if err != nil {
			return err
		}
		go func() {
			<-cmd.Context().Done()
			ln.Close()
		}()
		log.Infof("dumping connections on %s", ln.Addr())

		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				log.Warnf("accept failed: %v", err)
				continue
			}
			log.Debugf("accepted connection from %s", conn.RemoteAddr())
			go func(c net.Conn) {
				defer log.Debugf("closed connection from %s", c.RemoteAddr())
				for line := range probe.Lines(c) {
					fmt.Println(line)
				}
			}(conn)
		}
	},
}

func init() {
	dumpCmd.Flags().StringVar(&dumpAddr, "addr", "127.0.0.1:42069", "address to listen on")
}
