package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuqie6/SkillBridge/internal/schema"
	"github.com/yuqie6/SkillBridge/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D4A017"))
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// table lays rows out in left-aligned columns under a bold header.
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(c))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	out := []string{line(header, lipgloss.NewStyle().Bold(true))}
	for _, r := range rows {
		out = append(out, line(r, lipgloss.NewStyle()))
	}
	return strings.Join(out, "\n")
}

func renderTeams(teams []service.TeamStats) string {
	if len(teams) == 0 {
		return dimStyle.Render("no visible profiles yet")
	}
	rows := make([][]string, 0, len(teams))
	for i, t := range teams {
		top := make([]string, 0, len(t.TopMembers))
		for _, m := range t.TopMembers {
			top = append(top, fmt.Sprintf("%s (%d)", m.Name, m.Points))
		}
		rows = append(rows, []string{
			fmt.Sprintf("#%d", i+1),
			t.Department,
			fmt.Sprint(t.TotalPoints),
			fmt.Sprint(t.MemberCount),
			fmt.Sprint(t.AvgPoints),
			strings.Join(top, ", "),
		})
	}
	return titleStyle.Render("Team leaderboard") + "\n" +
		table([]string{"RANK", "DEPARTMENT", "TOTAL", "MEMBERS", "AVG", "TOP"}, rows)
}

func renderStanding(st *service.Standing) string {
	body := fmt.Sprintf("%s is #%d of %d in %s with %d points",
		st.UserID, st.Rank, st.TeamSize, st.Department, st.Points)
	return boxStyle.Render(body)
}

func renderSuggestions(user string, views []service.SuggestionView) string {
	if len(views) == 0 {
		return dimStyle.Render("no suggestions for " + user)
	}
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.Candidate.Name,
			v.Candidate.Department(),
			fmt.Sprint(v.Suggestion.Score),
			strings.Join(v.Suggestion.Reasons, "; "),
		})
	}
	return titleStyle.Render("Suggestions for "+user) + "\n" +
		table([]string{"CANDIDATE", "DEPARTMENT", "SCORE", "REASONS"}, rows)
}

func renderStreak(st *schema.StreakState) string {
	last := "never"
	if st.LastConnection > 0 {
		last = time.UnixMilli(st.LastConnection).Format("2006-01-02 15:04")
	}
	lines := []string{
		titleStyle.Render("Connection streak"),
		fmt.Sprintf("current  %d", st.CurrentStreak),
		fmt.Sprintf("best     %d", st.BestStreak),
		fmt.Sprintf("last     %s", last),
	}
	until := fmt.Sprintf("%d days until the streak breaks", st.DaysUntilBreak)
	if st.DaysUntilBreak <= 1 {
		lines = append(lines, warnStyle.Render(until))
	} else {
		lines = append(lines, dimStyle.Render(until))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderBadges(catalog []schema.Badge, grants []schema.BadgeGrant) string {
	granted := make(map[string]time.Time, len(grants))
	for _, g := range grants {
		granted[g.BadgeID] = g.GrantedAt
	}
	rows := make([][]string, 0, len(catalog))
	for _, b := range catalog {
		status := dimStyle.Render("locked")
		if at, ok := granted[b.ID]; ok {
			status = okStyle.Render("earned " + at.Format("2006-01-02"))
		}
		rows = append(rows, []string{b.Icon + " " + b.Name, status, b.Description})
	}
	return titleStyle.Render("Badges") + "\n" + table([]string{"BADGE", "STATUS", "HOW"}, rows)
}

func renderPoints(sum *service.PointsSummary) string {
	kinds := make([]string, 0, len(sum.ByKind))
	for k := range sum.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	rows := make([][]string, 0, len(kinds))
	for _, k := range kinds {
		rows = append(rows, []string{k, fmt.Sprint(sum.ByKind[schema.ActionKind(k)])})
	}
	return titleStyle.Render(fmt.Sprintf("%s: %d points", sum.UserID, sum.TotalPoints)) + "\n" +
		table([]string{"ACTION", "POINTS"}, rows)
}

func renderReconcile(results []service.ReconcileResult) string {
	repaired := 0
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if !r.Repaired {
			continue
		}
		repaired++
		rows = append(rows, []string{
			r.UserID,
			fmt.Sprintf("%d -> %d", r.ProfileTotal, r.LedgerTotal),
			fmt.Sprintf("%d -> %d", r.ProfileConnections, r.AcceptedCount),
		})
	}
	summary := fmt.Sprintf("checked %d profiles, repaired %d", len(results), repaired)
	if repaired == 0 {
		return okStyle.Render(summary)
	}
	return warnStyle.Render(summary) + "\n" + table([]string{"USER", "POINTS", "CONNECTIONS"}, rows)
}
