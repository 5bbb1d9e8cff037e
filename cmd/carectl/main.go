package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	api  string
	user string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "carectl",
		Short:         "CLI client for the care service REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&o.api, "api", "a", "http://localhost:8080", "Care service base URL")
	root.PersistentFlags().StringVarP(&o.user, "user", "u", "", "User ID")

	root.AddCommand(
		newUsersCmd(o),
		newPlantsCmd(o),
		newRemindersCmd(o),
		newRecommendationsCmd(o),
		newFeedCmd(o),
		newInboxCmd(o),
		newGenerateAllCmd(o),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) requireUser() error {
	if o.user == "" {
		return fmt.Errorf("--user required")
	}
	return nil
}
