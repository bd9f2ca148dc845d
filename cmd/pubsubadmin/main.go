// Command pubsubadmin is a small administrative CLI over a queue
// directory: initializing it, managing its subscriber set, and inspecting
// or vacuuming it. It is external tooling around the library in
// internal/control and internal/queue, not part of the queue's own API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rzbill/pubsubd/internal/config"
	"github.com/rzbill/pubsubd/internal/control"
	"github.com/rzbill/pubsubd/internal/metrics"
	"github.com/rzbill/pubsubd/internal/queue"
	"github.com/rzbill/pubsubd/pkg/xlog"
)

var logger = xlog.New(xlog.WithFormatter(&xlog.TextFormatter{}))

func main() {
	rootCmd := &cobra.Command{
		Use:   "pubsubadmin",
		Short: "Administrative CLI for pubsubd queue directories",
	}
	rootCmd.PersistentFlags().String("dir", "", "queue directory (defaults to PUBSUBD_DATA_DIR or the OS default data dir)")
	rootCmd.PersistentFlags().String("config", "", "path to a JSON or YAML config file")

	rootCmd.AddCommand(
		newInitCmd(),
		newAddSubscriberCmd(),
		newRemoveSubscriberCmd(),
		newClearSubscribersCmd(),
		newStatsCmd(),
		newVacuumCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", xlog.Err(err))
		os.Exit(1)
	}
}

// resolvedDir merges --dir, PUBSUBD_DATA_DIR, the --config file's dataDir,
// and the OS default, in that order of precedence.
func resolvedDir(cmd *cobra.Command) (string, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	config.FromEnv(&cfg)

	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir, nil
	}
	return cfg.DataDir, nil
}

func loadedConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	config.FromEnv(&cfg)
	return cfg, nil
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new queue directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadedConfig(cmd)
			if err != nil {
				return err
			}
			subs, _ := cmd.Flags().GetStringSlice("subscribers")
			if len(subs) == 0 {
				subs = cfg.SubscriberIDs
			}
			strategy, err := cfg.ParsedStrategy()
			if err != nil {
				return fmt.Errorf("parse strategy: %w", err)
			}

			c, err := control.Open(dir)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Init(control.InitParams{
				SubscriberIDs: subs,
				HWM:           cfg.HighWaterMark(),
				Strategy:      strategy,
			}); err != nil {
				return err
			}
			logger.Info("initialized queue", xlog.Str("dir", dir), xlog.Str("subscribers", strings.Join(subs, ",")))
			return nil
		},
	}
	cmd.Flags().StringSlice("subscribers", nil, "comma-separated subscriber ids to register")
	return cmd
}

func newAddSubscriberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-subscriber <id>",
		Short: "Register a new subscriber on an initialized queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			c, err := control.Open(dir)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.AddSubscriber(args[0]); err != nil {
				return err
			}
			logger.Info("added subscriber", xlog.Str("id", args[0]))
			return nil
		},
	}
}

func newRemoveSubscriberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-subscriber <id>",
		Short: "Remove a subscriber and its inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			c, err := control.Open(dir)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.RemoveSubscriber(args[0]); err != nil {
				return err
			}
			logger.Info("removed subscriber", xlog.Str("id", args[0]))
			return nil
		},
	}
}

func newClearSubscribersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-subscribers",
		Short: "Empty every subscriber's inbox without unregistering them",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			c, err := control.Open(dir)
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ClearAllSubscribers(); err != nil {
				return err
			}
			logger.Info("cleared all subscribers", xlog.Str("dir", dir))
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print message count, size, and subscriber list",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			collector := metrics.New("pubsubadmin")
			q, err := queue.Open(dir,
				queue.WithMetrics(collector),
				queue.WithStorageMetricsHook(collector),
			)
			if err != nil {
				return err
			}
			defer q.Close()

			count, err := q.Count(cmd.Context())
			if err != nil {
				return err
			}
			size, err := q.SizeBytes()
			if err != nil {
				return err
			}
			fmt.Printf("dir:         %s\n", dir)
			fmt.Printf("messages:    %d\n", count)
			fmt.Printf("size_bytes:  %d\n", size)
			fmt.Printf("subscribers: %s\n", strings.Join(q.SubscriberIDs(), ","))

			if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
				fmt.Println()
				if err := collector.WriteText(os.Stdout); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("metrics", false, "also print Prometheus text-format counters gathered during this command")
	return cmd
}

func newVacuumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Run dangling and high-water-mark pruning immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolvedDir(cmd)
			if err != nil {
				return err
			}
			collector := metrics.New("pubsubadmin")
			q, err := queue.Open(dir,
				queue.WithMetrics(collector),
				queue.WithStorageMetricsHook(collector),
			)
			if err != nil {
				return err
			}
			defer q.Close()

			stats, err := q.Vacuum(context.Background())
			if err != nil {
				return err
			}
			logger.Info("vacuum complete",
				xlog.Int("dangling_deleted", stats.DanglingDeleted),
				xlog.Int("hwm_pruned_count", stats.HWMPrunedCount),
				xlog.Int("hwm_pruned_size", stats.HWMPrunedSize),
			)

			if withMetrics, _ := cmd.Flags().GetBool("metrics"); withMetrics {
				if err := collector.WriteText(os.Stdout); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("metrics", false, "also print Prometheus text-format counters gathered during this command")
	return cmd
}
