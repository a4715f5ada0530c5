package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghinsight/ghinsight/pkg/usecase"
)

var profileCmd = &cobra.Command{
	Use:   "profile <login>",
	Short: "Fetch an account and its repositories in one combined view",
	Long: `Fetches the account and its repository listing concurrently and prints
the joined result as JSON. Each half reports independently: a failure on one
side still prints the other.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		accounts := usecase.NewFetchAccount(a.gateway, a.tokens)
		repositories := usecase.NewFetchRepositories(a.gateway, a.tokens)
		op := usecase.NewFetchProfile(accounts, repositories)

		analytics, _ := cmd.Flags().GetBool("analytics")

		result := op.Execute(cmd.Context(),
			usecase.FetchAccountInput{
				Login:        args[0],
				UseCache:     !flagNoCache,
				ForceRefresh: flagRefresh,
			},
			usecase.FetchRepositoriesInput{
				Login:            args[0],
				IncludeAnalytics: analytics,
				UseCache:         !flagNoCache,
				ForceRefresh:     flagRefresh,
			})

		if result.AccountErr != nil && result.RepositoriesErr != nil {
			return result.AccountErr
		}
		if result.AccountErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: account fetch failed: %v\n", result.AccountErr)
		}
		if result.RepositoriesErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: repositories fetch failed: %v\n", result.RepositoriesErr)
		}

		return printJSON(struct {
			Account      *usecase.AccountResult      `json:"account,omitempty"`
			Repositories *usecase.RepositoriesResult `json:"repositories,omitempty"`
		}{result.Account, result.Repositories})
	},
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().Bool("analytics", false, "include repository analytics")
}
