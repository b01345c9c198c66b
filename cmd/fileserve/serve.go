package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xaitan80/fileserve/internal/config"
	"github.com/xaitan80/fileserve/internal/contenttype"
	"github.com/xaitan80/fileserve/internal/fileserver"
	"github.com/xaitan80/fileserve/internal/fsys"
	"github.com/xaitan80/fileserve/internal/log"
	"github.com/xaitan80/fileserve/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the root directory until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "address to listen on (default 127.0.0.1:5500)")
	cmd.Flags().String("root", "", "directory to serve (default is the working directory)")
	cmd.Flags().Int("read-buffer", 0, "bytes read per request")
	cmd.Flags().Int("max-conns", 0, "connections handled at once")
	cmd.Flags().String("content-types", "", `content type strategy: "extension" or "sniff"`)
	cmd.Flags().Bool("accept-ranges", true, `send "Accept-Ranges: bytes" with files`)
	cmd.Flags().Bool("inline", false, `send "Content-Disposition: inline" with files`)
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fs := cmd.Flags()
	var err error
	if fs.Changed("addr") {
		cfg.Addr, err = fs.GetString("addr")
	}
	if err == nil && fs.Changed("root") {
		cfg.Root, err = fs.GetString("root")
	}
	if err == nil && fs.Changed("read-buffer") {
		cfg.ReadBufferSize, err = fs.GetInt("read-buffer")
	}
	if err == nil && fs.Changed("max-conns") {
		cfg.MaxConnections, err = fs.GetInt("max-conns")
	}
	if err == nil && fs.Changed("content-types") {
		cfg.ContentTypes, err = fs.GetString("content-types")
	}
	if err == nil && fs.Changed("accept-ranges") {
		cfg.AcceptRanges, err = fs.GetBool("accept-ranges")
	}
	if err == nil && fs.Changed("inline") {
		cfg.InlineDisposition, err = fs.GetBool("inline")
	}
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Root == "" {
		if cfg.Root, err = os.Getwd(); err != nil {
			return err
		}
	}
	root, err := fsys.NewRoot(cfg.Root)
	if err != nil {
		return err
	}
	types, _ := contenttype.ForName(cfg.ContentTypes)

	files := fileserver.New(root, types, fileserver.Options{
		AcceptRanges:      cfg.AcceptRanges,
		InlineDisposition: cfg.InlineDisposition,
	})
	srv, err := server.Serve(server.Config{
		Addr:           cfg.Addr,
		ReadBufferSize: cfg.ReadBufferSize,
		MaxConnections: cfg.MaxConnections,
	}, files.Handle)
	if err != nil {
		return err
	}
	log.Infof("serving %s on %s", cfg.Root, srv.Addr())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		<-ctx.Done()
		log.Infof("shutting down")
		return srv.Close()
	})
	return g.Wait()
}
