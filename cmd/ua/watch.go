package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/userassets/internal/events"
	"github.com/alfredjeanlab/userassets/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Print asset events as they are published",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		if rt.cfg.NATSURL == "" {
			return errors.New("ASSETS_NATS_URL is not set")
		}

		sub, err := events.NewNATSSubscriber(rt.cfg.NATSURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt.logger.Info("watching", "topic", topic, "nats_url", rt.cfg.NATSURL)
		return watchLoop(ctx, ch, os.Stdout)
	},
}

// watchLoop prints messages from ch until ctx is done or ch is closed.
func watchLoop(ctx context.Context, ch <-chan events.Message, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			writeEvent(w, msg, time.Now())
		}
	}
}

func writeEvent(w io.Writer, msg events.Message, at time.Time) {
	if jsonOutput {
		fmt.Fprintf(w, "{\"topic\":%q,\"event\":%s}\n", msg.Topic, msg.Data)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", ui.RenderMuted(at.Format(timeLayout)), ui.RenderAccent(msg.Topic), msg.Data)
}

func init() {
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to (NATS wildcards allowed)")
}
