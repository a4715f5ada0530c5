package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/domain"
)

func newProfileOp(gw *fakeGateway) *FetchProfile {
	tokens := NewTracker()
	return NewFetchProfile(NewFetchAccount(gw, tokens), NewFetchRepositories(gw, tokens))
}

func TestFetchProfile_BothSidesSucceed(t *testing.T) {
	gw := newFakeGateway()
	gw.account = domain.Account{Login: "octocat", Name: "The Octocat"}
	gw.repos = mixedRepos()
	op := newProfileOp(gw)

	result := op.Execute(context.Background(),
		FetchAccountInput{Login: "octocat"},
		FetchRepositoriesInput{Login: "octocat"})

	require.NoError(t, result.AccountErr)
	require.NoError(t, result.RepositoriesErr)
	assert.Equal(t, "octocat", result.Account.Account.Login)
	assert.Len(t, result.Repositories.Repositories, 5)

	// Both fetches actually ran.
	assert.Equal(t, 1, gw.findCalls)
	assert.Equal(t, 1, gw.repoCalls)
}

func TestFetchProfile_AccountFailureLeavesRepositoriesIntact(t *testing.T) {
	gw := newFakeGateway()
	gw.accountErr = &apierr.NotFoundError{Identifier: "ghost"}
	gw.repos = mixedRepos()
	op := newProfileOp(gw)

	result := op.Execute(context.Background(),
		FetchAccountInput{Login: "ghost"},
		FetchRepositoriesInput{Login: "ghost"})

	var nf *apierr.NotFoundError
	require.ErrorAs(t, result.AccountErr, &nf)
	assert.Nil(t, result.Account)

	require.NoError(t, result.RepositoriesErr)
	require.NotNil(t, result.Repositories)
	assert.Len(t, result.Repositories.Repositories, 5)
}

func TestFetchProfile_RepositoriesFailureLeavesAccountIntact(t *testing.T) {
	gw := newFakeGateway()
	gw.account = domain.Account{Login: "octocat"}
	gw.reposErr = &apierr.TransportError{Message: "listing unavailable", StatusCode: 502}
	op := newProfileOp(gw)

	result := op.Execute(context.Background(),
		FetchAccountInput{Login: "octocat"},
		FetchRepositoriesInput{Login: "octocat"})

	require.NoError(t, result.AccountErr)
	assert.Equal(t, "octocat", result.Account.Account.Login)

	var te *apierr.TransportError
	require.ErrorAs(t, result.RepositoriesErr, &te)
	assert.Equal(t, 502, te.StatusCode)
	assert.Nil(t, result.Repositories)
}
