package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"touille/internal/app"
	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

var settingsUser string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or update a user's dietary preferences",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if settingsUser == "" {
			return common.NewValidationError("--user is required")
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print stored preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		s, err := st.GetSettings(ctx, settingsUser)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update preferences; flags that are not given keep their stored value",
	RunE: func(cmd *cobra.Command, args []string) error {
		update, err := settingsUpdateFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		s, err := st.SetSettings(ctx, settingsUser, update)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

// settingsUpdateFromFlags 只有明確給定的旗標才會寫入
func settingsUpdateFromFlags(cmd *cobra.Command) (recipe.SettingsUpdate, error) {
	var update recipe.SettingsUpdate
	f := cmd.Flags()

	if f.Changed("dietary") {
		v, _ := f.GetString("dietary")
		update.DietaryRestrictions = recipe.Some(v)
	}
	if f.Changed("clear-dietary") {
		update.DietaryRestrictions = recipe.Null[string]()
	}
	if f.Changed("rules") {
		v, _ := f.GetString("rules")
		update.CustomRules = recipe.Some(v)
	}
	if f.Changed("clear-rules") {
		update.CustomRules = recipe.Null[string]()
	}
	if f.Changed("spice") {
		v, _ := f.GetInt("spice")
		update.SpiceTolerance = recipe.Some(v)
	}
	if f.Changed("reset-spice") {
		update.SpiceTolerance = recipe.Null[int]()
	}

	if f.Changed("dietary") && f.Changed("clear-dietary") {
		return update, common.NewValidationError("--dietary and --clear-dietary are exclusive")
	}
	if f.Changed("rules") && f.Changed("clear-rules") {
		return update, common.NewValidationError("--rules and --clear-rules are exclusive")
	}
	if f.Changed("spice") && f.Changed("reset-spice") {
		return update, common.NewValidationError("--spice and --reset-spice are exclusive")
	}
	return update, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode json")
	}
	fmt.Println(string(data))
	return nil
}

func addSettingsFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("dietary", "", "dietary restrictions, e.g. \"vegetarian, no nuts\"")
	f.Bool("clear-dietary", false, "remove dietary restrictions")
	f.Int("spice", recipe.DefaultSpiceTolerance, "spice tolerance 0-5")
	f.Bool("reset-spice", false, "reset spice tolerance to the default")
	f.String("rules", "", "custom rules passed to the extractor")
	f.Bool("clear-rules", false, "remove custom rules")
}

func init() {
	settingsCmd.PersistentFlags().StringVar(&settingsUser, "user", "", "user id")

	addSettingsFlags(settingsSetCmd)

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
