// Command udpbd-monitor watches the partitions of every disk lsblk reports
// (removable or not; no removability filter is applied) for one carrying a
// flag file and launches udpbdserver against the first one found, the way
// monitor.py polls lsblk and mounts/unmounts candidate partitions to look
// for it.
//
// This is a thin, Linux-only supplement (original_source/monitor.py):
// it is not part of the protocol core and has no property tests.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if runtime.GOOS != "linux" {
		fmt.Fprintln(os.Stderr, "udpbd-monitor: only supported on Linux")
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "udpbd-monitor",
		Usage: "launch udpbdserver against the first disk partition carrying a flag file",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "period", Value: 10 * time.Second, Usage: "polling period"},
			&cli.BoolFlag{Name: "read-only", Value: true, Usage: "open the block device read-only"},
			&cli.StringFlag{Name: "flag", Value: "udpbd", Usage: "flag file name to look for"},
			&cli.StringFlag{Name: "server-path", Value: "udpbdserver", Usage: "path to the udpbdserver binary"},
			&cli.StringFlag{Name: "base-path", Value: "/tmp/udpbd/partitions", Usage: "scratch mount base directory"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("udpbd-monitor exited with an error")
	}
}

type blockDevice struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Mountpoints []string      `json:"mountpoints"`
	Children    []blockDevice `json:"children"`
}

type lsblkOutput struct {
	BlockDevices []blockDevice `json:"blockdevices"`
}

type partitionInfo struct {
	parent     string
	mountpoint string // "" when not currently mounted
}

func run(c *cli.Context) error {
	period := c.Duration("period")
	readOnly := c.Bool("read-only")
	flagName := c.String("flag")
	serverPath := c.String("server-path")
	basePath := c.String("base-path")

	log.Info("server monitor is started")
	prevNames := map[string]bool{}

	for {
		partitions, err := listPartitions()
		if err != nil {
			log.WithError(err).Debug("failed to query block devices")
			time.Sleep(period)
			continue
		}

		currentNames := map[string]bool{}
		for name := range partitions {
			currentNames[name] = true
		}

		if !namesEqual(prevNames, currentNames) {
			prevNames = currentNames

			for name, info := range partitions {
				log.WithField("device", name).Info("searching flag in device")
				found, err := hasFlagInDevice(name, flagName, info.mountpoint, basePath)
				if err != nil {
					log.WithError(err).WithField("device", name).Warn("flag probe failed")
					continue
				}
				if !found {
					continue
				}

				log.WithField("device", name).Info("found flag in device")
				if err := runServer(serverPath, "/dev/"+name, readOnly); err != nil {
					log.WithError(err).Warn("udpbdserver exited with an error")
				}
				log.Info("terminated")
				prevNames = map[string]bool{}
				break
			}
		}

		time.Sleep(period)
	}
}

func namesEqual(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// listPartitions runs `lsblk --json` and flattens disk children into a
// name -> partitionInfo map, mirroring list_block_device_partitions.
func listPartitions() (map[string]partitionInfo, error) {
	out, err := exec.Command("lsblk", "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("lsblk: %w", err)
	}

	var parsed lsblkOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse lsblk output: %w", err)
	}

	results := map[string]partitionInfo{}
	for _, dev := range parsed.BlockDevices {
		if dev.Type != "disk" {
			continue
		}
		if len(dev.Children) == 0 {
			results[dev.Name] = partitionInfo{parent: "", mountpoint: firstMountpoint(dev.Mountpoints)}
			continue
		}
		for _, child := range dev.Children {
			results[child.Name] = partitionInfo{parent: dev.Name, mountpoint: firstMountpoint(child.Mountpoints)}
		}
	}
	return results, nil
}

func firstMountpoint(mps []string) string {
	if len(mps) == 0 {
		return ""
	}
	return mps[0]
}

// hasFlagInDevice mounts devName read-only if it isn't already mounted,
// checks for flagName at its root, and unmounts afterwards.
func hasFlagInDevice(devName, flagName, mountpoint, basePath string) (bool, error) {
	devPath := "/dev/" + devName
	tempMountpoint := mountpoint
	mountedByUs := false

	if tempMountpoint == "" {
		tempMountpoint = filepath.Join(basePath, devName)
		if err := os.MkdirAll(tempMountpoint, 0o755); err != nil {
			return false, fmt.Errorf("mkdir %s: %w", tempMountpoint, err)
		}
		if err := exec.Command("mount", "-t", "auto", "-o", "ro", devPath, tempMountpoint).Run(); err != nil {
			return false, fmt.Errorf("mount %s: %w", devPath, err)
		}
		mountedByUs = true
	}
	defer func() {
		if mountedByUs {
			if err := exec.Command("umount", "-l", tempMountpoint).Run(); err != nil {
				log.WithError(err).WithField("mountpoint", tempMountpoint).Warn("unmount failed")
			}
		}
	}()

	_, err := os.Stat(filepath.Join(tempMountpoint, flagName))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func runServer(serverPath, devPath string, readOnly bool) error {
	args := []string{"--path", devPath}
	if readOnly {
		args = append(args, "--read-only")
	}
	cmd := exec.Command(serverPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
