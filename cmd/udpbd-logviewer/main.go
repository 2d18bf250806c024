// Command udpbd-logviewer prints log lines broadcast by a udpbdserver
// started with --log-broadcast, one per datagram, matching logviewer.py's
// "[ip:port] text" format.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/udpbdgo/udpbd/pkg/logbroadcast"
)

func main() {
	app := &cli.App{
		Name:  "udpbd-logviewer",
		Usage: "print log lines broadcast by udpbdserver --log-broadcast",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: logbroadcast.DefaultPort, Usage: "UDP port to listen on"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("udpbd-logviewer exited with an error")
	}
}

func run(c *cli.Context) error {
	port := c.Int("port")
	r, err := logbroadcast.Listen(port)
	if err != nil {
		return cli.Exit(fmt.Sprintf("udpbd-logviewer: %v", err), 1)
	}
	defer r.Close()

	log.WithField("port", port).Info("listening for broadcast log lines")

	for {
		msg, err := r.Recv()
		if err != nil {
			return cli.Exit(fmt.Sprintf("udpbd-logviewer: %v", err), 1)
		}
		fmt.Printf("[%s] %s\n", msg.Addr, msg.Text)
	}
}
