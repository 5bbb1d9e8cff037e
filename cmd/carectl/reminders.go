package main

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

func newRemindersCmd(o *options) *cobra.Command {
	var noWeather, noSeasonal bool
	remindersCmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show the ranked care reminders computed for the user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/reminders", evalQuery(noWeather, noSeasonal))
		},
	}
	remindersCmd.Flags().BoolVar(&noWeather, "no-weather", false, "Skip weather rules")
	remindersCmd.Flags().BoolVar(&noSeasonal, "no-seasonal", false, "Skip seasonal and climate rules")

	remindersCmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "List stored reminders that are not completed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/reminders/open", nil)
		},
	})

	var notes string
	completeCmd := &cobra.Command{
		Use:   "complete REMINDER_ID",
		Short: "Complete a reminder; recurring reminders schedule their successor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.send(cmd.OutOrStdout(), http.MethodPost, "/api/users/"+o.user+"/reminders/"+args[0]+"/complete", map[string]string{"notes": notes})
		},
	}
	completeCmd.Flags().StringVar(&notes, "notes", "", "Notes recorded in care history")
	remindersCmd.AddCommand(completeCmd)
	return remindersCmd
}

func evalQuery(noWeather, noSeasonal bool) map[string]string {
	return map[string]string{
		"includeWeather":  strconv.FormatBool(!noWeather),
		"includeSeasonal": strconv.FormatBool(!noSeasonal),
	}
}
