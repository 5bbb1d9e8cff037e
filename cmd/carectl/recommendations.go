package main

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

func newRecommendationsCmd(o *options) *cobra.Command {
	recsCmd := &cobra.Command{Use: "recs", Short: "Stored recommendation operations"}

	var typ, status, priority string
	var page, limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			q := map[string]string{"type": typ, "status": status, "priority": priority}
			if page > 0 {
				q["page"] = strconv.Itoa(page)
			}
			if limit > 0 {
				q["limit"] = strconv.Itoa(limit)
			}
			for k, v := range q {
				if v == "" {
					delete(q, k)
				}
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/recommendations", q)
		},
	}
	listCmd.Flags().StringVarP(&typ, "type", "t", "", "Filter by type")
	listCmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	listCmd.Flags().StringVarP(&priority, "priority", "p", "", "Filter by priority")
	listCmd.Flags().IntVar(&page, "page", 0, "Page, 1-based")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Page size")
	recsCmd.AddCommand(listCmd)

	recsCmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Summary counts for the user's visible recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/recommendations/dashboard", nil)
		},
	})

	recsCmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Evaluate the rules for the user and persist the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.send(cmd.OutOrStdout(), http.MethodPost, "/api/users/"+o.user+"/recommendations/generate", nil)
		},
	})

	recsCmd.AddCommand(actionCmd(o, "ack", "acknowledge", "Acknowledge a recommendation"))
	recsCmd.AddCommand(actionCmd(o, "dismiss", "dismiss", "Dismiss a recommendation"))
	return recsCmd
}

func actionCmd(o *options, use, action, short string) *cobra.Command {
	var notes string
	c := &cobra.Command{
		Use:   use + " RECOMMENDATION_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			path := "/api/users/" + o.user + "/recommendations/" + args[0] + "/" + action
			return o.send(cmd.OutOrStdout(), http.MethodPost, path, map[string]string{"notes": notes})
		},
	}
	c.Flags().StringVar(&notes, "notes", "", "Optional note stored with the action")
	return c
}

func newFeedCmd(o *options) *cobra.Command {
	var noWeather, noSeasonal bool
	c := &cobra.Command{
		Use:   "feed",
		Short: "Stored and freshly computed recommendations, ranked",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/feed", evalQuery(noWeather, noSeasonal))
		},
	}
	c.Flags().BoolVar(&noWeather, "no-weather", false, "Skip weather rules")
	c.Flags().BoolVar(&noSeasonal, "no-seasonal", false, "Skip seasonal and climate rules")
	return c
}

func newInboxCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Automatic and supervisor recommendations in one list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/inbox", nil)
		},
	}
}

func newGenerateAllCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-all",
		Short: "Run generation for every user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.send(cmd.OutOrStdout(), http.MethodPost, "/api/recommendations/generate-all", nil)
		},
	}
}
