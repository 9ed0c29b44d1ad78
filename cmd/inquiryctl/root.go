package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aescanero/dago-inquiry-router/internal/classifier"
	"github.com/aescanero/dago-inquiry-router/internal/dtc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options shared by every command
type rootOptions struct {
	out          io.Writer
	verbose      bool
	keywordsFile string
	dtcFile      string
	redisAddr    string
	redisPass    string
	redisDB      int
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	cmd := &cobra.Command{
		Use:   "inquiryctl",
		Short: "Classify, route and inspect automotive customer inquiries",
		Long: `inquiryctl runs the inquiry classifier and router locally and inspects the
conversation state kept by the inquiry worker.

Local commands (classify, route, dtc) need no infrastructure. The threads and
send commands talk to the worker's Redis.`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline decisions to stderr")
	flags.StringVar(&opts.keywordsFile, "keywords", "", "YAML file overriding the keyword tables")
	flags.StringVar(&opts.dtcFile, "dtc-file", "", "YAML file with additional DTC descriptions")
	flags.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis address")
	flags.StringVar(&opts.redisPass, "redis-pass", "", "Redis password")
	flags.IntVar(&opts.redisDB, "redis-db", 0, "Redis database")

	cmd.AddCommand(
		newClassifyCmd(opts),
		newRouteCmd(opts),
		newDTCCmd(opts),
		newThreadsCmd(opts),
		newSendCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.out, "inquiryctl %s\nbuilt: %s\n", Version, BuildTime)
		},
	}
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *rootOptions) classifier() (*classifier.Classifier, error) {
	tables := classifier.DefaultTables()
	if o.keywordsFile != "" {
		var err error
		if tables, err = classifier.LoadTables(o.keywordsFile); err != nil {
			return nil, err
		}
	}
	return classifier.NewClassifier(tables, o.logger())
}

func (o *rootOptions) detector() (*dtc.Detector, error) {
	lookup := dtc.NewStaticLookup(dtc.DefaultDescriptions())
	if o.dtcFile != "" {
		var err error
		if lookup, err = dtc.LoadStaticLookup(o.dtcFile); err != nil {
			return nil, err
		}
	}
	return dtc.NewDetector(lookup, o.logger()), nil
}

func (o *rootOptions) printJSON(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
