package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"quboassign/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch [run-id]",
	Short: "Stream run progress published over Redis",
	Long: `Watch prints progress events as JSON lines until interrupted. Without a
run id it follows every run. It needs events.redisUrl (or ASSIGNOPT_REDIS_URL).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Events.RedisURL == "" {
			return errors.New("watch: no redis configured (events.redisUrl)")
		}
		b, err := events.NewRedis(cfg.Events.RedisURL, logger)
		if err != nil {
			return err
		}
		defer b.Close()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if err := b.Ping(ctx); err != nil {
			return err
		}

		runID := events.All
		if len(args) == 1 {
			runID = args[0]
		}
		ch := b.Subscribe(runID)
		defer b.Unsubscribe(runID, ch)
		enc := json.NewEncoder(os.Stdout)
		for {
			select {
			case <-ctx.Done():
				return nil
			case evt, ok := <-ch:
				if !ok {
					return nil
				}
				if err := enc.Encode(evt); err != nil {
					return err
				}
			}
		}
	},
}
