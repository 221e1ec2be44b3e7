package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/brc/common/go/logging"
	"github.com/yanet-platform/brc/common/go/xcmd"
	"github.com/yanet-platform/brc/pkg/brcd"
)

var rootCmd = &cobra.Command{
	Use:   "brc",
	Short: "Transparent GET cache for the Redis protocol",
}

// ReplayCmd is the command line arguments of the replay command.
type ReplayCmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// Inputs are the capture files to replay, in order.
	Inputs []string
	// Output is the path of the capture file forwarded frames are written to.
	Output string
}

var replayCmd ReplayCmd

var replayCommand = &cobra.Command{
	Use:   "replay",
	Short: "Replay captured traffic through the cache and report its stats",
	Run: func(rawCmd *cobra.Command, args []string) {
		if err := runReplay(replayCmd); err != nil {
			if xcmd.IsInterrupted(err) {
				return
			}

			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

var configCommand = &cobra.Command{
	Use:   "config",
	Short: "Print the default configuration",
	Run: func(rawCmd *cobra.Command, args []string) {
		if err := yaml.NewEncoder(os.Stdout).Encode(brcd.DefaultConfig()); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	replayCommand.Flags().StringVarP(&replayCmd.ConfigPath, "config", "c", "", "Path to the configuration file (required)")
	replayCommand.Flags().StringArrayVarP(&replayCmd.Inputs, "input", "i", nil, "Capture file to replay, pcap or pcapng (required, repeatable)")
	replayCommand.Flags().StringVarP(&replayCmd.Output, "output", "o", "", "Capture file to write forwarded frames to")
	replayCommand.MarkFlagRequired("config")
	replayCommand.MarkFlagRequired("input")

	rootCmd.AddCommand(replayCommand, configCommand)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func runReplay(cmd ReplayCmd) error {
	cfg, err := brcd.LoadConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	director, err := brcd.NewDirector(cfg, brcd.WithLog(log))
	if err != nil {
		return fmt.Errorf("failed to create director: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		defer cancel()

		report, err := director.Replay(ctx, cmd.Inputs, cmd.Output)
		if err != nil {
			return err
		}
		return yaml.NewEncoder(os.Stdout).Encode(report)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		if xcmd.IsInterrupted(err) {
			log.Infof("caught signal: %v", err)
			return err
		}
		return nil
	})

	return wg.Wait()
}
