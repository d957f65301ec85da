// Package admin computes the read-only operational rollups served by the
// support dashboard. Everything here is a pure function over fully loaded
// tables; there are no side effects and no mutation.
package admin

import (
	"math"
	"sort"
	"time"

	"github.com/rowanvale/bridgewell/internal/model"
)

type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

type DashboardStats struct {
	TotalCustomers             int            `json:"totalCustomers"`
	TotalGraduates             int            `json:"totalGraduates"`
	CompletionRate             int            `json:"completionRate"`
	AttorneyRepresentationRate int            `json:"attorneyRepresentationRate"`
	AvgDaysToComplete          int            `json:"avgDaysToComplete"`
	PurchasesByCourse          map[string]int `json:"purchasesByCourse"`
	GraduatesByState           []StateCount   `json:"graduatesByState"`
	PurchasesLast7Days         int            `json:"purchasesLast7Days"`
	GraduatesLast7Days         int            `json:"graduatesLast7Days"`
	ExamPassRate               int            `json:"examPassRate"`
	FirstAttemptPassRate       int            `json:"firstAttemptPassRate"`
	StuckStudents              int            `json:"stuckStudents"`
}

// ComputeStats builds the dashboard rollups at the given instant. Each user
// counts at most once per metric regardless of how many purchases they hold.
// Percentages are rounded to the nearest integer.
func ComputeStats(now time.Time, purchases []model.Purchase, certificates []model.Certificate, profiles []model.Profile, attempts []model.ExamAttempt) DashboardStats {
	stats := DashboardStats{
		PurchasesByCourse: make(map[string]int),
	}

	profileByAccount := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		profileByAccount[p.AccountID] = p
	}

	customers := make(map[string]bool)
	weekAgo := now.AddDate(0, 0, -7)
	for _, p := range purchases {
		stats.PurchasesByCourse[string(p.CourseType)]++
		if p.Status == model.PurchaseStatusActive {
			customers[p.AccountID] = true
		}
		if !p.PurchasedAt.Before(weekAgo) {
			stats.PurchasesLast7Days++
		}
	}
	stats.TotalCustomers = len(customers)

	graduates := make(map[string]bool)
	for _, c := range certificates {
		graduates[c.AccountID] = true
		if !c.IssuedAt.Before(weekAgo) {
			stats.GraduatesLast7Days++
		}
	}
	stats.TotalGraduates = len(graduates)
	stats.CompletionRate = percent(stats.TotalGraduates, stats.TotalCustomers)

	represented := 0
	stateCounts := make(map[string]int)
	for accountID := range graduates {
		profile, ok := profileByAccount[accountID]
		if !ok {
			continue
		}
		if profile.AttorneyEmail != nil {
			represented++
		}
		if profile.CourtState != nil {
			stateCounts[*profile.CourtState]++
		}
	}
	stats.AttorneyRepresentationRate = percent(represented, stats.TotalGraduates)

	for state, count := range stateCounts {
		stats.GraduatesByState = append(stats.GraduatesByState, StateCount{State: state, Count: count})
	}
	sort.Slice(stats.GraduatesByState, func(i, j int) bool {
		if stats.GraduatesByState[i].Count != stats.GraduatesByState[j].Count {
			return stats.GraduatesByState[i].Count > stats.GraduatesByState[j].Count
		}
		return stats.GraduatesByState[i].State < stats.GraduatesByState[j].State
	})

	stats.AvgDaysToComplete = avgDaysToComplete(purchases, certificates)
	stats.ExamPassRate, stats.FirstAttemptPassRate = passRates(attempts)

	monthAgo := now.AddDate(0, 0, -30)
	stuck := make(map[string]bool)
	for _, p := range purchases {
		if p.Status == model.PurchaseStatusActive && p.PurchasedAt.Before(monthAgo) && !graduates[p.AccountID] {
			stuck[p.AccountID] = true
		}
	}
	stats.StuckStudents = len(stuck)

	return stats
}

// avgDaysToComplete averages the purchase-to-issuance delta, pairing each
// certificate with the user's earliest purchase entitling that course. Pairs
// with no resolvable purchase or a negative delta are skipped.
func avgDaysToComplete(purchases []model.Purchase, certificates []model.Certificate) int {
	byAccount := make(map[string][]model.Purchase)
	for _, p := range purchases {
		byAccount[p.AccountID] = append(byAccount[p.AccountID], p)
	}

	var totalDays float64
	var pairs int
	for _, c := range certificates {
		var earliest *time.Time
		for _, p := range byAccount[c.AccountID] {
			if !p.CourseType.Entitles(c.CourseType) {
				continue
			}
			t := p.PurchasedAt
			if earliest == nil || t.Before(*earliest) {
				earliest = &t
			}
		}
		if earliest == nil {
			continue
		}
		days := c.IssuedAt.Sub(*earliest).Hours() / 24
		if days < 0 {
			continue
		}
		totalDays += days
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return int(math.Round(totalDays / float64(pairs)))
}

// passRates computes the overall pass rate and the first-attempt pass rate.
// A user's first attempt is the one with the earliest started_at (ties broken
// by row id), not store scan order.
func passRates(attempts []model.ExamAttempt) (overall, firstAttempt int) {
	if len(attempts) == 0 {
		return 0, 0
	}

	passed := 0
	first := make(map[string]model.ExamAttempt)
	for _, a := range attempts {
		if a.Passed {
			passed++
		}
		prev, ok := first[a.AccountID]
		if !ok || a.StartedAt.Before(prev.StartedAt) || (a.StartedAt.Equal(prev.StartedAt) && a.ID < prev.ID) {
			first[a.AccountID] = a
		}
	}

	firstPassed := 0
	for _, a := range first {
		if a.Passed {
			firstPassed++
		}
	}

	return percent(passed, len(attempts)), percent(firstPassed, len(first))
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
