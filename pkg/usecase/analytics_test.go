package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghinsight/ghinsight/pkg/domain"
)

func analyticsRepo(name, language string, stars int, active bool, ageDays int) domain.Repository {
	created := time.Now().Add(-time.Duration(ageDays) * 24 * time.Hour)
	pushed := time.Now().Add(-90 * 24 * time.Hour)
	if active {
		pushed = time.Now().Add(-24 * time.Hour)
	}
	return domain.Repository{
		Name: name, Language: language, Stars: stars, Forks: stars / 2,
		CreatedAt: &created, PushedAt: &pushed,
	}
}

func TestComputeAnalytics_EmptySet(t *testing.T) {
	assert.Nil(t, ComputeAnalytics(nil))
	assert.Nil(t, ComputeAnalytics([]domain.Repository{}))
}

func TestComputeAnalytics_LanguageDistribution(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Go", 10, true, 100),
		analyticsRepo("b", "Go", 20, true, 100),
		analyticsRepo("c", "Ruby", 5, false, 100),
		analyticsRepo("d", "", 1, false, 100), // languageless, excluded from buckets
	}

	a := ComputeAnalytics(repos)
	require.NotNil(t, a)

	langs := a.Languages.Languages
	require.Len(t, langs, 2)
	assert.Equal(t, "Go", langs[0].Language)
	assert.Equal(t, 2, langs[0].Count)
	assert.Equal(t, 30, langs[0].Stars)
	assert.InDelta(t, 50.0, langs[0].Percent, 0.001)
	assert.Equal(t, "Ruby", langs[1].Language)
	assert.InDelta(t, 25.0, langs[1].Percent, 0.001)

	// 2 distinct languages over 4 repositories.
	assert.InDelta(t, 50.0, a.Languages.DiversityPercent, 0.001)
	assert.Equal(t, langs, a.Languages.Top)
}

func TestComputeAnalytics_PercentagesSumToHundred(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Go", 1, true, 10),
		analyticsRepo("b", "Go", 1, true, 10),
		analyticsRepo("c", "Ruby", 1, true, 10),
		analyticsRepo("d", "Rust", 1, true, 10),
		analyticsRepo("e", "Rust", 1, true, 10),
		analyticsRepo("f", "Zig", 1, true, 10),
		analyticsRepo("g", "C", 1, true, 10),
	}

	a := ComputeAnalytics(repos)

	var sum float64
	for _, lang := range a.Languages.Languages {
		sum += lang.Percent
	}
	assert.InDelta(t, 100.0, sum, 0.01, "fully-languaged set covers the whole distribution")
}

func TestComputeAnalytics_LanguageTiesBreakAlphabetically(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Rust", 1, true, 10),
		analyticsRepo("b", "Go", 1, true, 10),
	}

	a := ComputeAnalytics(repos)
	require.Len(t, a.Languages.Languages, 2)
	assert.Equal(t, "Go", a.Languages.Languages[0].Language)
	assert.Equal(t, "Rust", a.Languages.Languages[1].Language)
}

func TestComputeAnalytics_Activity(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Go", 10, true, 100),
		analyticsRepo("b", "Go", 10, true, 300),
		analyticsRepo("c", "Go", 10, false, 200),
	}
	// A repository with no creation date contributes to counts but not age.
	noDate := analyticsRepo("d", "Go", 10, false, 0)
	noDate.CreatedAt = nil
	repos = append(repos, noDate)

	a := ComputeAnalytics(repos)

	assert.Equal(t, 2, a.Activity.Active)
	assert.Equal(t, 2, a.Activity.Inactive)
	assert.InDelta(t, 50.0, a.Activity.ActivePercent, 0.001)
	assert.InDelta(t, 200.0, a.Activity.MeanAgeDays, 1.0, "mean age averages only dated repositories")
}

func TestComputeAnalytics_Popularity(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("huge", "Go", 500, true, 100),
		analyticsRepo("big", "Go", 150, true, 100),
		analyticsRepo("mid", "Go", 60, true, 100),
		analyticsRepo("small-1", "Go", 20, true, 100),
		analyticsRepo("small-2", "Go", 10, true, 100),
		analyticsRepo("tiny", "Go", 3, true, 100),
	}

	a := ComputeAnalytics(repos)
	pop := a.Popularity

	assert.Equal(t, 743, pop.TotalStars)
	assert.Equal(t, 2, pop.PopularCount, "only the >=100 star repositories count as popular")
	assert.Equal(t, 124, pop.MeanStars, "mean rounds to the nearest whole star")

	require.Len(t, pop.Top, 5, "leaderboard caps at five rows")
	assert.Equal(t, "huge", pop.Top[0].Name)
	assert.Equal(t, "big", pop.Top[1].Name)
	assert.Equal(t, "small-2", pop.Top[4].Name)
}

func TestComputeAnalytics_Momentum(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Go", 10, true, 100),
		analyticsRepo("b", "Go", 20, true, 100),
		analyticsRepo("c", "Go", 30, false, 100),
		analyticsRepo("d", "Go", 40, false, 100),
	}

	a := ComputeAnalytics(repos)

	// round(50*0.5 + 10*ln(25+1)) = round(25 + 32.58) = 58
	assert.Equal(t, 58, a.Trends.Momentum)
	assert.Equal(t, 2, a.Trends.ActiveCount)
}

func TestComputeAnalytics_MomentumAllActiveNoStars(t *testing.T) {
	repos := []domain.Repository{
		analyticsRepo("a", "Go", 0, true, 5),
		analyticsRepo("b", "Go", 0, true, 5),
	}

	a := ComputeAnalytics(repos)

	// round(50*1.0 + 10*ln(1)) = 50
	assert.Equal(t, 50, a.Trends.Momentum)
	assert.Equal(t, 2, a.Trends.NewCount)
}
