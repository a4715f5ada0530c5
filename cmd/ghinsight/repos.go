package main

import (
	"github.com/spf13/cobra"

	"github.com/ghinsight/ghinsight/pkg/usecase"
)

var reposCmd = &cobra.Command{
	Use:   "repos <login>",
	Short: "List an account's repositories with filters, sorting, and analytics",
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
		direction, _ := flags.GetString("direction")
		language, _ := flags.GetString("language")
		repoType, _ := flags.GetString("type")
		minStars, _ := flags.GetInt("min-stars")
		activeOnly, _ := flags.GetBool("active-only")
		sortBy, _ := flags.GetString("sort-by")
		analytics, _ := flags.GetBool("analytics")

		op := usecase.NewFetchRepositories(a.gateway, a.tokens)
		result, err := op.Execute(cmd.Context(), usecase.FetchRepositoriesInput{
			Login:            args[0],
			Page:             page,
			PerPage:          perPage,
			Sort:             sort,
			Direction:        direction,
			Language:         language,
			Type:             repoType,
			MinStars:         minStars,
			ActiveOnly:       activeOnly,
			SortBy:           sortBy,
			IncludeAnalytics: analytics,
			UseCache:         !flagNoCache,
			ForceRefresh:     flagRefresh,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(reposCmd)
	reposCmd.Flags().Int("page", 1, "page number")
	reposCmd.Flags().Int("per-page", 30, "results per page (1-100)")
	reposCmd.Flags().String("sort", "updated", "remote sort: created, updated, pushed, full-name")
	reposCmd.Flags().String("direction", "desc", "remote sort direction: asc, desc")
	reposCmd.Flags().String("language", "", "keep only repositories in this language")
	reposCmd.Flags().String("type", "", "keep only this repository type: fork, source")
	reposCmd.Flags().Int("min-stars", 0, "keep only repositories with at least this many stars")
	reposCmd.Flags().Bool("active-only", false, "keep only recently pushed repositories")
	reposCmd.Flags().String("sort-by", "", "client-side sort: popularity, stars, forks, size, name, language")
	reposCmd.Flags().Bool("analytics", false, "include repository analytics")
}
