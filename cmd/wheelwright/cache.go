package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/wheelwright/internal/chef"
	"github.com/ZebulonRouseFrantzich/wheelwright/internal/link"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Query the artifact cache",
	}

	withChef := func(run func(cmd *cobra.Command, c *chef.Chef, l *link.Link) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			l, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			env, err := a.environment(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return run(cmd, chef.New(cfg.CacheDir, env, chef.WithLogger(a.logger)), l)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "key <url>",
			Short: "Print the cache key for a source URL",
			Args:  cobra.ExactArgs(1),
			RunE: withChef(func(cmd *cobra.Command, c *chef.Chef, l *link.Link) error {
				fmt.Fprintln(cmd.OutOrStdout(), c.CacheKey(l))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "dir <url>",
			Short: "Print the cache directory for a source URL",
			Args:  cobra.ExactArgs(1),
			RunE: withChef(func(cmd *cobra.Command, c *chef.Chef, l *link.Link) error {
				fmt.Fprintln(cmd.OutOrStdout(), c.CacheDirFor(l))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "lookup <url>",
			Short: "Print the best cached archive for a source URL",
			Long:  "Print the cached archive the configured interpreter would use for a source URL. Wheel URLs are printed unchanged; a miss prints the URL itself.",
			Args:  cobra.ExactArgs(1),
			RunE: withChef(func(cmd *cobra.Command, c *chef.Chef, l *link.Link) error {
				best, err := c.BestCandidate(l)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), best.String())
				return nil
			}),
		},
	)
	return cmd
}
