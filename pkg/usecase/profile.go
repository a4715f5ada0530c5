package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ProfileResult joins the outcomes of a concurrent account and repositories
// fetch. Each side reports independently: a failure in one never cancels or
// corrupts the other.
type ProfileResult struct {
	Account    *AccountResult
	AccountErr error

	Repositories    *RepositoriesResult
	RepositoriesErr error
}

// FetchProfile fans out an account fetch and a repositories fetch for the
// same request and joins the results.
type FetchProfile struct {
	accounts     *FetchAccount
	repositories *FetchRepositories
}

// NewFetchProfile creates the fan-out operation over the two fetch
// operations.
func NewFetchProfile(accounts *FetchAccount, repositories *FetchRepositories) *FetchProfile {
	return &FetchProfile{accounts: accounts, repositories: repositories}
}

// Execute runs both fetches concurrently. The closures capture their own
// typed outcome and always return nil, so neither branch short-circuits the
// group when the other fails.
func (op *FetchProfile) Execute(ctx context.Context, accountInput FetchAccountInput, repoInput FetchRepositoriesInput) ProfileResult {
	var result ProfileResult

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		result.Account, result.AccountErr = op.accounts.Execute(egCtx, accountInput)
		return nil
	})

	eg.Go(func() error {
		result.Repositories, result.RepositoriesErr = op.repositories.Execute(egCtx, repoInput)
		return nil
	})

	// Closures never return an error; Wait only joins the two branches.
	_ = eg.Wait()

	return result
}
