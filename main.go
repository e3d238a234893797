package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options holds the raw flag values of the root command
type options struct {
	settingsPath string
	host         string
	userID       string
	token        string
	title        string
	timeout      time.Duration
	dryRun       bool
	debug        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "md-publisher [file]",
		Short: "Publish a markdown document as a post",
		Long: `Reads a local markdown file and publishes it as a single post to a
Medium-compatible posts API using a bearer token.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.settingsPath, "settings", "", "Path to settings YAML file (default "+GetConfigPath("settings.yaml")+")")
	cmd.Flags().StringVar(&opts.host, "host", "", "API host, overrides "+envHost)
	cmd.Flags().StringVar(&opts.userID, "user-id", "", "User ID owning the post, overrides "+envUserID)
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token, overrides "+envToken)
	cmd.Flags().StringVar(&opts.title, "title", "", "Post title, overrides "+envTitle)
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the request payload without sending it")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return cmd
}

// overrides returns only the flags the user actually set
func (o *options) overrides(cmd *cobra.Command, args []string) *ConfigOverrides {
	overrides := &ConfigOverrides{}
	flags := cmd.Flags()
	if flags.Changed("settings") {
		overrides.SettingsPath = &o.settingsPath
	}
	if flags.Changed("host") {
		overrides.Host = &o.host
	}
	if flags.Changed("user-id") {
		overrides.UserID = &o.userID
	}
	if flags.Changed("token") {
		overrides.Token = &o.token
	}
	if flags.Changed("title") {
		overrides.Title = &o.title
	}
	if flags.Changed("timeout") {
		overrides.Timeout = &o.timeout
	}
	if len(args) > 0 {
		overrides.File = &args[0]
	}
	return overrides
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	logger, err := NewLogger(opts.debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings, err := LoadSettings(opts.overrides(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.File == "" {
		return fmt.Errorf("file required: pass it as an argument or set %s", envFile)
	}

	if opts.dryRun {
		err = settings.ValidateTarget()
	} else {
		err = settings.Validate()
	}
	if err != nil {
		return err
	}

	endpoint, err := BuildEndpoint(settings.Host, settings.UserID)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: settings.Timeout}
	publisher := NewPublisher(endpoint, settings.Token, client, logger)
	publisher.SetPublishStatus(settings.PublishStatus)

	if opts.dryRun {
		doc, err := publisher.LoadDocument(settings.File, settings.Title)
		if err != nil {
			return fmt.Errorf("loading document: %w", err)
		}
		payload, err := json.MarshalIndent(NewPublishRequest(doc), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		logger.Info("dry run, nothing sent", zap.String("endpoint", endpoint))
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	result, err := publisher.PublishFile(cmd.Context(), settings.File, settings.Title)
	if err != nil {
		return err
	}

	// A rejected post is reported, not treated as a fault
	fmt.Fprintln(cmd.OutOrStdout(), FormatResult(result))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
