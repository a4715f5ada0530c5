package usecase

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/ghinsight/ghinsight/pkg/domain"
)

// LanguageStat aggregates the repositories of one language.
type LanguageStat struct {
	Language string  `json:"language"`
	Count    int     `json:"count"`
	Stars    int     `json:"stars"`
	Percent  float64 `json:"percent"`
}

// LanguageDistribution describes how repositories spread across languages.
type LanguageDistribution struct {
	Languages []LanguageStat `json:"languages"`

	// Top holds at most the ten most common languages.
	Top []LanguageStat `json:"top"`

	// DiversityPercent is distinct languages over total repositories.
	DiversityPercent float64 `json:"diversity_percent"`
}

// ActivityStats summarizes recent repository activity.
type ActivityStats struct {
	Active        int     `json:"active"`
	Inactive      int     `json:"inactive"`
	New           int     `json:"new"`
	ActivePercent float64 `json:"active_percent"`

	// MeanAgeDays averages over repositories with a valid creation date.
	MeanAgeDays float64 `json:"mean_age_days"`
}

// TopRepository is one row of the popularity leaderboard.
type TopRepository struct {
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
	Language string `json:"language"`
}

// PopularityStats summarizes star and fork totals.
type PopularityStats struct {
	TotalStars   int             `json:"total_stars"`
	TotalForks   int             `json:"total_forks"`
	PopularCount int             `json:"popular_count"`
	MeanStars    int             `json:"mean_stars"`
	Top          []TopRepository `json:"top"`
}

// TrendStats is the synthetic momentum view.
type TrendStats struct {
	ActiveCount int `json:"active_count"`
	NewCount    int `json:"new_count"`

	// Momentum = round(50*activeRatio + 10*ln(meanStars+1)).
	Momentum int `json:"momentum"`
}

// Analytics is the derived view over a full fetched repository set.
type Analytics struct {
	Languages  LanguageDistribution `json:"languages"`
	Activity   ActivityStats        `json:"activity"`
	Popularity PopularityStats      `json:"popularity"`
	Trends     TrendStats           `json:"trends"`
}

// ComputeAnalytics derives the analytics block over a repository set. It
// returns nil for an empty set so callers can distinguish "no data" from
// "all zero".
func ComputeAnalytics(repos []domain.Repository) *Analytics {
	if len(repos) == 0 {
		return nil
	}

	return &Analytics{
		Languages:  computeLanguages(repos),
		Activity:   computeActivity(repos),
		Popularity: computePopularity(repos),
		Trends:     computeTrends(repos),
	}
}

func computeLanguages(repos []domain.Repository) LanguageDistribution {
	counts := make(map[string]int)
	starTotals := make(map[string]int)
	for _, r := range repos {
		if r.Language == "" {
			continue
		}
		counts[r.Language]++
		starTotals[r.Language] += r.Stars
	}

	languages := make([]LanguageStat, 0, len(counts))
	for lang, count := range counts {
		languages = append(languages, LanguageStat{
			Language: lang,
			Count:    count,
			Stars:    starTotals[lang],
			Percent:  float64(count) / float64(len(repos)) * 100,
		})
	}
	// Most common first; ties break alphabetically for stable output.
	sort.Slice(languages, func(i, j int) bool {
		if languages[i].Count != languages[j].Count {
			return languages[i].Count > languages[j].Count
		}
		return languages[i].Language < languages[j].Language
	})

	top := languages
	if len(top) > 10 {
		top = top[:10]
	}

	return LanguageDistribution{
		Languages:        languages,
		Top:              top,
		DiversityPercent: float64(len(counts)) / float64(len(repos)) * 100,
	}
}

func computeActivity(repos []domain.Repository) ActivityStats {
	var active, fresh int
	ages := make([]float64, 0, len(repos))

	for _, r := range repos {
		if r.IsActive() {
			active++
		}
		if r.IsNew() {
			fresh++
		}
		if age, ok := r.AgeDays(); ok {
			ages = append(ages, float64(age))
		}
	}

	meanAge := 0.0
	if len(ages) > 0 {
		meanAge, _ = stats.Mean(ages)
	}

	return ActivityStats{
		Active:        active,
		Inactive:      len(repos) - active,
		New:           fresh,
		ActivePercent: float64(active) / float64(len(repos)) * 100,
		MeanAgeDays:   meanAge,
	}
}

func computePopularity(repos []domain.Repository) PopularityStats {
	var totalStars, totalForks, popular int
	starCounts := make([]float64, 0, len(repos))

	for _, r := range repos {
		totalStars += r.Stars
		totalForks += r.Forks
		if r.IsPopular() {
			popular++
		}
		starCounts = append(starCounts, float64(r.Stars))
	}

	meanStars, _ := stats.Mean(starCounts)

	ranked := make([]domain.Repository, len(repos))
	copy(ranked, repos)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Stars > ranked[j].Stars })
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	top := make([]TopRepository, len(ranked))
	for i, r := range ranked {
		top[i] = TopRepository{Name: r.Name, Stars: r.Stars, Forks: r.Forks, Language: r.Language}
	}

	return PopularityStats{
		TotalStars:   totalStars,
		TotalForks:   totalForks,
		PopularCount: popular,
		MeanStars:    int(math.Round(meanStars)),
		Top:          top,
	}
}

func computeTrends(repos []domain.Repository) TrendStats {
	var active, fresh int
	starCounts := make([]float64, 0, len(repos))
	for _, r := range repos {
		if r.IsActive() {
			active++
		}
		if r.IsNew() {
			fresh++
		}
		starCounts = append(starCounts, float64(r.Stars))
	}

	meanStars, _ := stats.Mean(starCounts)
	activeRatio := float64(active) / float64(len(repos))

	return TrendStats{
		ActiveCount: active,
		NewCount:    fresh,
		Momentum:    int(math.Round(50*activeRatio + 10*math.Log(meanStars+1))),
	}
}
