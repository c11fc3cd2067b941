package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "message queue commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list the registered mq backends and the event topics",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Registered mq types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(out, "   - "+string(t))
			}

			fmt.Fprintln(out, "Event topics:")

			for _, topic := range queue.FileTopics {
				fmt.Fprintln(out, "   - "+topic)
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail <topic>",
		Short: "print the events published on topic until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, &cfg.MQ, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			msgs, err := client.Subscribe(ctx, args[0])
			if err != nil {
				return err
			}

			for msg := range msgs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", msg.UUID, msg.Payload)
				msg.Ack()
			}

			return nil
		},
	}
)

func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTailCmd)
}
