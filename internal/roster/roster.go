// Package roster moves learner progress in and out of spreadsheet files
// and aggregates uploaded class snapshots for the teacher dashboard.
package roster

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// ErrNoRecords is returned when a file contains no usable topic rows.
var ErrNoRecords = errors.New("no valid topic rows")

const bom = "\ufeff"

// Header is the column layout of exported ranking tables.
var Header = []string{
	"Họ và tên", "Lớp", "ID", "Chuyên đề", "Mastery (%)",
	"C1 (%)", "C2 (%)", "C3 (%)", "C4 (%)",
	"Xếp hạng", "Tăng trưởng (Ngày)", "Tăng trưởng (Tuần)",
}

// Standing is a mastery bucket with its sort weight.
type Standing struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// MasteryStanding buckets a mastery percentage.
func MasteryStanding(percent float64) Standing {
	switch {
	case percent <= 0:
		return Standing{"Chưa học", 0}
	case percent <= 30:
		return Standing{"Cần cố gắng", 1}
	case percent <= 50:
		return Standing{"Trung bình", 2}
	case percent <= 75:
		return Standing{"Khá", 3}
	case percent <= 95:
		return Standing{"Giỏi", 4}
	default:
		return Standing{"Elite", 5}
	}
}

// MasteryLabel returns the display label of a mastery percentage.
func MasteryLabel(percent float64) string {
	return MasteryStanding(percent).Label
}

// Row is one line of the ranking table.
type Row struct {
	FullName   string
	ClassName  string
	TopicID    int
	Keyword    string
	Mastery    float64
	Competency progress.CompetencyScores
	Standing   string
	// Day and Week are the topic's stored growth figures, 0 unless a
	// persisted blob carried them.
	Day  float64
	Week float64
}

// Rows builds the ranking table for a learner, highest mastery first.
// Missing identity fields export as "N/A".
func Rows(profile progress.UserProfile, topics []progress.Topic) []Row {
	name := orNA(profile.FullName)
	class := orNA(profile.ClassName)

	rows := make([]Row, len(topics))
	for i, t := range topics {
		rows[i] = Row{
			FullName:   name,
			ClassName:  class,
			TopicID:    t.TopicID,
			Keyword:    t.KeywordLabel,
			Mastery:    t.MasteryPercent,
			Competency: t.Competency,
			Standing:   MasteryLabel(t.MasteryPercent),
			Day:        t.History.Day,
			Week:       t.History.Week,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Mastery > rows[j].Mastery })
	return rows
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func (r Row) fields() []string {
	return []string{
		r.FullName,
		r.ClassName,
		strconv.Itoa(r.TopicID),
		r.Keyword,
		formatNumber(r.Mastery),
		formatNumber(r.Competency.C1),
		formatNumber(r.Competency.C2),
		formatNumber(r.Competency.C3),
		formatNumber(r.Competency.C4),
		r.Standing,
		formatNumber(r.Day),
		formatNumber(r.Week),
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseRecords reads topic records from table rows. The first row is a
// header. Full exports carry the id at column 2 and scores at 4..8; short
// tables of at least seven columns carry the id first and scores at 2..6.
// Rows without a numeric id are skipped; unparsable scores read as zero.
func parseRecords(table [][]string) []progress.TopicRecord {
	var out []progress.TopicRecord
	for i, row := range table {
		if i == 0 {
			continue
		}
		var idCol, scoreCol int
		switch {
		case len(row) >= 12:
			idCol, scoreCol = 2, 4
		case len(row) >= 7:
			idCol, scoreCol = 0, 2
		default:
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(row[idCol]))
		if err != nil {
			continue
		}
		out = append(out, progress.TopicRecord{
			TopicID:        id,
			MasteryPercent: parseNumber(row[scoreCol]),
			Competency: progress.CompetencyScores{
				C1: parseNumber(row[scoreCol+1]),
				C2: parseNumber(row[scoreCol+2]),
				C3: parseNumber(row[scoreCol+3]),
				C4: parseNumber(row[scoreCol+4]),
			},
		})
	}
	return out
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
