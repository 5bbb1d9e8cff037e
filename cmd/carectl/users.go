package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newUsersCmd(o *options) *cobra.Command {
	usersCmd := &cobra.Command{Use: "users", Short: "User operations"}

	var location, hemisphere string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			payload := map[string]interface{}{"userId": o.user}
			if location != "" {
				payload["location"] = location
			}
			if hemisphere != "" {
				payload["hemisphere"] = hemisphere
			}
			return o.send(cmd.OutOrStdout(), http.MethodPost, "/api/users", payload)
		},
	}
	createCmd.Flags().StringVarP(&location, "location", "l", "", "City or region used for weather")
	createCmd.Flags().StringVar(&hemisphere, "hemisphere", "", "north or south")
	usersCmd.AddCommand(createCmd)

	usersCmd.AddCommand(&cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.get(cmd.OutOrStdout(), "/api/users/"+args[0], nil)
		},
	})
	return usersCmd
}

func newPlantsCmd(o *options) *cobra.Command {
	plantsCmd := &cobra.Command{Use: "plants", Short: "User plant operations"}

	var plantID, name, location, planted string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a plant from the catalog to the user's collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			payload := map[string]interface{}{"plantId": plantID, "customName": name, "location": location}
			if planted != "" {
				d, err := time.Parse("2006-01-02", planted)
				if err != nil {
					return fmt.Errorf("--planted must be YYYY-MM-DD: %w", err)
				}
				payload["plantedDate"] = d
			}
			return o.send(cmd.OutOrStdout(), http.MethodPost, "/api/users/"+o.user+"/plants", payload)
		},
	}
	addCmd.Flags().StringVarP(&plantID, "plant", "p", "", "Catalog plant ID (required)")
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Custom name")
	addCmd.Flags().StringVarP(&location, "location", "l", "", "Plant location, overrides the user's")
	addCmd.Flags().StringVar(&planted, "planted", "", "Planted date YYYY-MM-DD")
	_ = addCmd.MarkFlagRequired("plant")
	plantsCmd.AddCommand(addCmd)

	plantsCmd.AddCommand(&cobra.Command{
		Use:   "get USER_PLANT_ID",
		Short: "Get a plant with its reminders and care history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireUser(); err != nil {
				return err
			}
			return o.get(cmd.OutOrStdout(), "/api/users/"+o.user+"/plants/"+args[0], nil)
		},
	})
	return plantsCmd
}
