package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/aescanero/dago-inquiry-router/internal/domain"
	"github.com/aescanero/dago-inquiry-router/internal/router"
	"github.com/spf13/cobra"
)

type classifyOutput struct {
	Evaluation *domain.Evaluation `json:"evaluation"`
	Score      float64            `json:"score"`
	Path       string             `json:"path"`
	Reason     string             `json:"reason"`
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var history []string

	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message against the keyword tables",
		Example: `  inquiryctl classify "My check engine light came on"
  inquiryctl classify --history "my brakes squeal" "how much are new pads?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := opts.classifier()
			if err != nil {
				return err
			}
			out := cls.Evaluate(strings.Join(args, " "), history)
			return opts.printJSON(classifyOutput{
				Evaluation: out.Evaluation,
				Score:      out.Score,
				Path:       out.Path,
				Reason:     out.Reason,
			})
		},
	}
	cmd.Flags().StringArrayVar(&history, "history", nil, "prior message in the conversation, oldest first (repeatable)")
	return cmd
}

func newRouteCmd(opts *rootOptions) *cobra.Command {
	var history []string

	cmd := &cobra.Command{
		Use:   "route <message>",
		Short: "Classify a message and print the routing decision and acknowledgment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := opts.classifier()
			if err != nil {
				return err
			}
			rtr, err := router.NewRouter(opts.logger())
			if err != nil {
				return err
			}

			out := cls.Evaluate(strings.Join(args, " "), history)
			state := domain.NewConversationState("inquiryctl", time.Now())
			reply := rtr.Respond(cmd.Context(), state, out.Evaluation)
			if reply.Err != nil {
				return fmt.Errorf("routing failed: %w", reply.Err)
			}

			if err := opts.printJSON(reply.Result); err != nil {
				return err
			}
			fmt.Fprintln(opts.out)
			fmt.Fprintln(opts.out, reply.Output)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&history, "history", nil, "prior message in the conversation, oldest first (repeatable)")
	return cmd
}

func newDTCCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dtc <message>",
		Short: "Scan a message for diagnostic trouble codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detector, err := opts.detector()
			if err != nil {
				return err
			}
			res := detector.Evaluate(cmd.Context(), strings.Join(args, " "))
			if res.Evaluation == nil {
				fmt.Fprintln(opts.out, res.Reason)
				return nil
			}
			return opts.printJSON(res.Evaluation)
		},
	}
}
