package roster_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/roster"
)

func TestMasteryLabel(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, "Chưa học"},
		{0.1, "Cần cố gắng"},
		{30, "Cần cố gắng"},
		{30.5, "Trung bình"},
		{50, "Trung bình"},
		{75, "Khá"},
		{95, "Giỏi"},
		{95.1, "Elite"},
		{200, "Elite"},
	}
	for _, tt := range tests {
		if got := roster.MasteryLabel(tt.percent); got != tt.want {
			t.Errorf("MasteryLabel(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func sampleRows() []roster.Row {
	topics := []progress.Topic{
		{TopicContent: progress.TopicContent{TopicID: 1, KeywordLabel: "VỊ TRÍ"}, MasteryPercent: 12},
		{TopicContent: progress.TopicContent{TopicID: 2, KeywordLabel: "ĐỊA HÌNH, KHOÁNG SẢN"}, MasteryPercent: 80,
			Competency: progress.CompetencyScores{C1: 10, C2: 20, C3: 30, C4: 40.5}},
	}
	return roster.Rows(progress.UserProfile{FullName: "NGUYỄN AN"}, topics)
}

func TestRows(t *testing.T) {
	rows := sampleRows()
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].TopicID != 2 {
		t.Errorf("rows[0].TopicID = %d, want highest mastery first", rows[0].TopicID)
	}
	if rows[0].ClassName != "N/A" {
		t.Errorf("ClassName = %q, want N/A", rows[0].ClassName)
	}
	if rows[0].Standing != "Giỏi" {
		t.Errorf("Standing = %q, want Giỏi", rows[0].Standing)
	}
	if rows[0].Day != 0 || rows[0].Week != 0 {
		t.Errorf("growth = %v/%v, want 0/0 without stored history", rows[0].Day, rows[0].Week)
	}

	withHistory := roster.Rows(progress.UserProfile{}, []progress.Topic{{
		TopicContent: progress.TopicContent{TopicID: 3},
		History:      progress.MasteryHistory{Day: 4, Week: 9},
	}})
	if r := withHistory[0]; r.Day != 4 || r.Week != 9 {
		t.Errorf("growth = %v/%v, want 4/9", r.Day, r.Week)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := roster.WriteCSV(&buf, sampleRows()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\ufeff") {
		t.Error("CSV should start with a byte-order mark")
	}
	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Họ và tên,Lớp,ID,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"ĐỊA HÌNH, KHOÁNG SẢN"`) {
		t.Errorf("row with comma should be quoted: %q", lines[1])
	}
}

func TestImport_RoundTrip(t *testing.T) {
	for _, format := range []roster.Format{roster.FormatCSV, roster.FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := roster.Export(&buf, format, sampleRows()); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			records, err := roster.Import(&buf, format)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("len(records) = %d, want 2", len(records))
			}
			r := records[0]
			if r.TopicID != 2 || r.MasteryPercent != 80 {
				t.Errorf("record = %+v", r)
			}
			if r.Competency.C4 != 40.5 || r.Competency.C1 != 10 {
				t.Errorf("Competency = %+v", r.Competency)
			}
		})
	}
}

func TestImport_CSVLayouts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []progress.TopicRecord
	}{
		{
			name:  "short layout",
			input: "ID,Label,Mastery,C1,C2,C3,C4\n3,x,55,1,2,3,4\n",
			want:  []progress.TopicRecord{{TopicID: 3, MasteryPercent: 55, Competency: progress.CompetencyScores{C1: 1, C2: 2, C3: 3, C4: 4}}},
		},
		{
			name:  "bad numbers read as zero",
			input: "\ufeffh\n\"A\",\"B\",4,\"K\",abc,1,2,3,4,L,0,0\n",
			want:  []progress.TopicRecord{{TopicID: 4, Competency: progress.CompetencyScores{C1: 1, C2: 2, C3: 3, C4: 4}}},
		},
		{
			name:  "rows without id are skipped",
			input: "h\nA,B,x,K,10,1,2,3,4,L,0,0\nA,B,5,K,10,1,2,3,4,L,0,0\n",
			want:  []progress.TopicRecord{{TopicID: 5, MasteryPercent: 10, Competency: progress.CompetencyScores{C1: 1, C2: 2, C3: 3, C4: 4}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := roster.Import(strings.NewReader(tt.input), roster.FormatCSV)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestImport_NoRecords(t *testing.T) {
	_, err := roster.Import(strings.NewReader("only,a,header\n1,2\n"), roster.FormatCSV)
	if !errors.Is(err, roster.ErrNoRecords) {
		t.Fatalf("Import() error = %v, want ErrNoRecords", err)
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]roster.Format{
		"xlsx":        roster.FormatXLSX,
		"export.XLSX": roster.FormatXLSX,
		"csv":         roster.FormatCSV,
		"student.csv": roster.FormatCSV,
		"":            roster.FormatCSV,
	}
	for in, want := range tests {
		if got := roster.FormatFor(in); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", in, got, want)
		}
	}
}
