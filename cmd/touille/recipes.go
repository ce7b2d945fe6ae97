package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"touille/internal/app"
	"touille/internal/core/recipe"
	"touille/internal/pkg/common"
)

var recipesUser string

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List stored recipes for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		list, err := st.ListForUser(ctx, recipesUser)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No recipes found.")
			return nil
		}
		fmt.Println(renderTable(
			[]string{"ID", "Title", "URL", "Created"},
			summaryRows(list),
			1,
		))
		return nil
	},
}

var recipesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored recipe as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Wrapf(err, "invalid id %q", args[0])
		}

		ctx := cmd.Context()
		st, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.GetByID(ctx, id, recipesUser)
		if err != nil {
			return err
		}
		if rec == nil {
			return common.ErrNotFound
		}
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode recipe")
		}
		fmt.Println(string(data))
		return nil
	},
}

func summaryRows(list []recipe.Summary) [][]string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			common.Truncate(s.Recipe.Title, 40),
			s.URL,
			s.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func init() {
	recipesCmd.PersistentFlags().StringVar(&recipesUser, "user", "", "user id (anonymous when empty)")
	recipesCmd.AddCommand(recipesShowCmd)
	rootCmd.AddCommand(recipesCmd)
}
