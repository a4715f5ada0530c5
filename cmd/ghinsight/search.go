package main

import (
	"github.com/spf13/cobra"

	"github.com/ghinsight/ghinsight/pkg/usecase"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search accounts by query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		page, _ := flags.GetInt("page")
		perPage, _ := flags.GetInt("per-page")
		sort, _ := flags.GetString("sort")

		op := usecase.NewSearchAccounts(a.gateway, a.tokens)
		result, err := op.Execute(cmd.Context(), usecase.SearchAccountsInput{
			Query:        args[0],
			Page:         page,
			PerPage:      perPage,
			Sort:         sort,
			UseCache:     !flagNoCache,
			ForceRefresh: flagRefresh,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("page", 1, "page number")
	searchCmd.Flags().Int("per-page", 30, "results per page (1-100)")
	searchCmd.Flags().String("sort", "", "sort: followers, repositories, joined (default best match)")
}
