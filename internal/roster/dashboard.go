package roster

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// Student status buckets by average mastery.
const (
	StatusCritical   = "CRITICAL"
	StatusWarning    = "WARNING"
	StatusOK         = "OK"
	StatusIncomplete = "INCOMPLETE"
)

// StatusFor buckets an average mastery. A snapshot without topic rows is
// incomplete rather than critical.
func StatusFor(avg int, rows int) string {
	switch {
	case rows == 0:
		return StatusIncomplete
	case avg < 40:
		return StatusCritical
	case avg < 70:
		return StatusWarning
	default:
		return StatusOK
	}
}

// CompetencyAverage holds rounded per-skill averages.
type CompetencyAverage struct {
	C1 int `json:"C1"`
	C2 int `json:"C2"`
	C3 int `json:"C3"`
	C4 int `json:"C4"`
}

// StudentSnapshot is one uploaded student export.
type StudentSnapshot struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ClassName     string            `json:"class_name"`
	AvgMastery    int               `json:"avg_mastery"`
	CompetencyAvg CompetencyAverage `json:"competency_avg"`
	Status        string            `json:"status"`
	Topics        int               `json:"topics"`
	Mastery       map[int]float64   `json:"mastery"`
}

// ParseSnapshot reads one student's ranking export. Only rows whose topic
// id is in known are counted; a nil known accepts every id. The student
// name comes from the file name, the class from the first data row.
func ParseSnapshot(fileName string, r io.Reader, known map[int]bool) (StudentSnapshot, error) {
	format := FormatFor(fileName)
	table, err := ReadTable(r, format)
	if err != nil {
		return StudentSnapshot{}, fmt.Errorf("reading %s: %w", fileName, err)
	}

	base := filepath.Base(fileName)
	name := strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
	snap := StudentSnapshot{
		ID:        uuid.NewString(),
		Name:      name,
		ClassName: "N/A",
		Mastery:   map[int]float64{},
	}

	var sum, c1, c2, c3, c4 float64
	for i, row := range table {
		if i == 0 || len(row) < 9 {
			continue
		}
		id, ok := parseID(row[2])
		if !ok || (known != nil && !known[id]) {
			continue
		}
		if _, dup := snap.Mastery[id]; dup {
			continue
		}
		if snap.Topics == 0 {
			if class := strings.TrimSpace(row[1]); class != "" {
				snap.ClassName = class
			}
		}
		m := parseNumber(row[4])
		snap.Mastery[id] = m
		sum += m
		c1 += parseNumber(row[5])
		c2 += parseNumber(row[6])
		c3 += parseNumber(row[7])
		c4 += parseNumber(row[8])
		snap.Topics++
	}

	if n := float64(snap.Topics); n > 0 {
		snap.AvgMastery = roundInt(sum / n)
		snap.CompetencyAvg = CompetencyAverage{
			C1: roundInt(c1 / n),
			C2: roundInt(c2 / n),
			C3: roundInt(c3 / n),
			C4: roundInt(c4 / n),
		}
	}
	snap.Status = StatusFor(snap.AvgMastery, snap.Topics)
	return snap, nil
}

func parseID(s string) (int, bool) {
	v := parseNumber(s)
	if v <= 0 || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// Summary is the class-level view of the dashboard.
type Summary struct {
	Students     int               `json:"students"`
	ClassAverage int               `json:"class_average"`
	Critical     int               `json:"critical"`
	Warning      int               `json:"warning"`
	Leaderboard  []StudentSnapshot `json:"leaderboard"`
}

// Dashboard accumulates uploaded snapshots for one teacher session.
type Dashboard struct {
	mu       sync.RWMutex
	known    map[int]bool
	students []StudentSnapshot
}

// NewDashboard creates a dashboard that counts only the given topics.
func NewDashboard(topics []progress.TopicContent) *Dashboard {
	known := make(map[int]bool, len(topics))
	for _, t := range topics {
		known[t.TopicID] = true
	}
	return &Dashboard{known: known}
}

// Upload parses and adds one student file.
func (d *Dashboard) Upload(fileName string, r io.Reader) (StudentSnapshot, error) {
	var known map[int]bool
	if len(d.known) > 0 {
		known = d.known
	}
	snap, err := ParseSnapshot(fileName, r, known)
	if err != nil {
		return StudentSnapshot{}, err
	}
	d.mu.Lock()
	d.students = append(d.students, snap)
	d.mu.Unlock()
	return snap, nil
}

// Reset drops every uploaded snapshot.
func (d *Dashboard) Reset() {
	d.mu.Lock()
	d.students = nil
	d.mu.Unlock()
}

// Summary aggregates the uploaded students. The leaderboard is sorted by
// average mastery, highest first; incomplete snapshots are listed last.
func (d *Dashboard) Summary() Summary {
	d.mu.RLock()
	students := append([]StudentSnapshot{}, d.students...)
	d.mu.RUnlock()

	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if (a.Status == StatusIncomplete) != (b.Status == StatusIncomplete) {
			return b.Status == StatusIncomplete
		}
		return a.AvgMastery > b.AvgMastery
	})

	s := Summary{Students: len(students), Leaderboard: students}
	total := 0
	for _, st := range students {
		total += st.AvgMastery
		switch st.Status {
		case StatusCritical:
			s.Critical++
		case StatusWarning:
			s.Warning++
		}
	}
	if len(students) > 0 {
		s.ClassAverage = roundInt(float64(total) / float64(len(students)))
	}
	return s
}
