package cmdutil

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/sources/vectorstock"
	"github.com/agentstation/curator/internal/transport"
	"github.com/agentstation/curator/pkg/logging"
)

// Context returns the command context carrying the app logger.
func Context(cmd *cobra.Command, app appcontext.Interface) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logging.WithLogger(ctx, app.Logger())
}

// SearchFlags holds flags for commands that call the search API.
type SearchFlags struct {
	BaseURL string
	Rate    float64
}

// AddSearchFlags adds search API flags to a command.
func AddSearchFlags(cmd *cobra.Command) *SearchFlags {
	flags := &SearchFlags{}

	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "",
		"Search API endpoint (default from config)")
	cmd.Flags().Float64Var(&flags.Rate, "rate", 0,
		"Search requests per second, 0 disables pacing (default from config, 2)")

	return flags
}

// Client builds a search client from the flags, falling back to s.
func (f *SearchFlags) Client(cmd *cobra.Command, s appcontext.Settings) *vectorstock.Client {
	baseURL := f.BaseURL
	if baseURL == "" {
		baseURL = s.SearchBaseURL
	}
	rate := f.Rate
	if !cmd.Flags().Changed("rate") {
		rate = s.SearchRate
	}

	t := transport.New(
		transport.WithRateLimit(rate, 1),
		transport.WithAuth(transport.ParseAuth(s.AuthScheme), s.APIKey),
	)
	return vectorstock.NewClient(
		vectorstock.WithBaseURL(baseURL),
		vectorstock.WithTransport(t),
	)
}
