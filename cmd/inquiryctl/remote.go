package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/conversation"
	"github.com/aescanero/dago-inquiry-router/internal/inquiry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func (o *rootOptions) redisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.redisAddr,
		Password: o.redisPass,
		DB:       o.redisDB,
	})
}

func newThreadsCmd(opts *rootOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "threads <conversation-id> [query]",
		Short: "Report on the active inquiry threads of a conversation",
		Long: `Report on the active inquiry threads stored for a conversation.

The query selects the view: "thread <id>" shows one thread, "summary" or
"overview" counts threads by category and urgency, words such as "urgent",
"parts" or "diagnostic" filter the list. Without a query every thread is listed.`,
		Example: `  inquiryctl threads conv-42
  inquiryctl threads conv-42 summary
  inquiryctl threads conv-42 "thread INQ-M0X1Y2-0A1B2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.redisClient()
			defer client.Close()

			store := conversation.NewRedisStore(client, opts.logger(), conversation.WithKeyPrefix(prefix))
			st, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			query := strings.Join(args[1:], " ")
			fmt.Fprintln(opts.out, conversation.ThreadReport(query, st.ActiveConversationThreads, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", conversation.DefaultKeyPrefix, "conversation state key prefix")
	return cmd
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		stream string
		sender string
	)

	cmd := &cobra.Command{
		Use:   "send <conversation-id> <message>",
		Short: "Enqueue a customer message for the inquiry worker",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inquiry.Inbound{
				ConversationID: args[0],
				MessageID:      uuid.NewString(),
				Text:           strings.Join(args[1:], " "),
				Sender:         sender,
				ReceivedAt:     time.Now().UTC(),
			}
			data, err := json.Marshal(in)
			if err != nil {
				return fmt.Errorf("failed to marshal message: %w", err)
			}

			client := opts.redisClient()
			defer client.Close()

			id, err := client.XAdd(cmd.Context(), &redis.XAddArgs{
				Stream: stream,
				Values: map[string]interface{}{
					"data": string(data),
				},
			}).Result()
			if err != nil {
				return fmt.Errorf("failed to publish to stream: %w", err)
			}

			fmt.Fprintf(opts.out, "queued message %s as %s on %s\n", in.MessageID, id, stream)
			return nil
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "inquiry.inbound", "inbound Redis stream")
	cmd.Flags().StringVar(&sender, "sender", "", "sender recorded with the message")
	return cmd
}
