// Command udpbdserver serves a block device over the UDPBD protocol,
// mirroring pyudpbd/server.py's command-line contract.
package main

import (
	"context"
	"expvar"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mkevac/debugcharts"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/udpbdgo/udpbd/internal/profile"
	"github.com/udpbdgo/udpbd/pkg/blockdevice"
	"github.com/udpbdgo/udpbd/pkg/logbroadcast"
	"github.com/udpbdgo/udpbd/pkg/udpbd"
)

func main() {
	app := &cli.App{
		Name:  "udpbdserver",
		Usage: "serve a block device over UDPBD",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "path to the block device or backing file"},
			&cli.UintFlag{Name: "sector-size", Value: 512, Usage: "sector size in bytes"},
			&cli.BoolFlag{Name: "read-only", Aliases: []string{"ro"}, Usage: "open the device read-only"},
			&cli.BoolFlag{Name: "test-mode", Usage: "serve an in-memory device instead of --path"},
			&cli.IntFlag{Name: "port", Value: udpbd.DefaultPort, Usage: "UDP port to listen on"},
			&cli.StringFlag{Name: "profile", Usage: "optional ini profile overriding the flags above"},
			&cli.BoolFlag{Name: "debug-http", Usage: "serve Go runtime charts and byte counters on --debug-http-addr"},
			&cli.StringFlag{Name: "debug-http-addr", Value: "127.0.0.1:8081", Usage: "address for --debug-http"},
			&cli.BoolFlag{Name: "log-broadcast", Usage: "also broadcast log lines over UDP for udpbd-logviewer"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warning, or error"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("udpbdserver exited with an error")
	}
}

func run(c *cli.Context) error {
	opts := blockdevice.Options{
		Path:       c.String("path"),
		SectorSize: uint32(c.Uint("sector-size")),
		ReadOnly:   c.Bool("read-only"),
		TestMode:   c.Bool("test-mode"),
	}
	port := c.Int("port")
	debugHTTP := c.Bool("debug-http")
	debugHTTPAddr := c.String("debug-http-addr")
	logBroadcastEnabled := c.Bool("log-broadcast")

	if profilePath := c.String("profile"); profilePath != "" {
		p, err := profile.Load(profilePath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("udpbdserver: load profile: %v", err), 1)
		}
		p.Apply(&opts, &port, &debugHTTP, &debugHTTPAddr, &logBroadcastEnabled)
	}

	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("udpbdserver: bad --log-level: %v", err), 1)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	handlers := []slog.Handler{slog.NewTextHandler(os.Stdout, nil)}
	if logBroadcastEnabled {
		bcastHandler, err := logbroadcast.NewHandler(0, slog.LevelInfo)
		if err != nil {
			log.WithError(err).Warn("log broadcast disabled: failed to open socket")
		} else {
			defer bcastHandler.Close()
			handlers = append(handlers, bcastHandler)
		}
	}
	logger := slog.New(fanoutHandler(handlers))

	if opts.Path == "" && !opts.TestMode {
		return cli.Exit("udpbdserver: one of --path or --test-mode is required", 1)
	}

	blkdev, err := blockdevice.Open(blockdevice.Options{
		Path:       opts.Path,
		SectorSize: opts.SectorSize,
		ReadOnly:   opts.ReadOnly,
		TestMode:   opts.TestMode,
		Logger:     logger,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("udpbdserver: open device: %v", err), 1)
	}

	server, err := udpbd.New(blkdev, port, logger)
	if err != nil {
		blkdev.Close()
		return cli.Exit(fmt.Sprintf("udpbdserver: start server: %v", err), 1)
	}
	defer server.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var onTick func(read, written uint64)
	if debugHTTP {
		bytesRead := expvar.NewInt("udpbd_bytes_read")
		bytesWritten := expvar.NewInt("udpbd_bytes_written")
		onTick = func(read, written uint64) {
			bytesRead.Set(int64(read))
			bytesWritten.Set(int64(written))
		}

		mux := http.DefaultServeMux
		go func() {
			log.WithField("addr", debugHTTPAddr).Info("serving debug charts at /debug/charts/ and counters at /debug/vars")
			if err := http.ListenAndServe(debugHTTPAddr, mux); err != nil {
				log.WithError(err).Warn("debug http server stopped")
			}
		}()
	}

	go server.ReportStatusPeriodically(ctx, 10*time.Second, onTick)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(time.Second) }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case err := <-errCh:
		if err != nil {
			return cli.Exit(fmt.Sprintf("udpbdserver: %v", err), 1)
		}
		return nil
	}
}
