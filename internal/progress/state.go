package progress

import "time"

// StateVersion is bumped whenever the persisted layout changes incompatibly.
const StateVersion = 1

const (
	MaxCompetency  = 100
	MasteryCeiling = 200
)

// Role is who is using the profile.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// ViewMode is the top-level screen.
type ViewMode string

const (
	ViewStudentCanvas    ViewMode = "STUDENT_CANVAS"
	ViewTeacherDashboard ViewMode = "TEACHER_DASHBOARD"
	ViewArena            ViewMode = "ARENA_MODE"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	switch m {
	case ViewStudentCanvas, ViewTeacherDashboard, ViewArena:
		return true
	}
	return false
}

// Theme is the canvas color theme.
type Theme string

const (
	ThemeCrypto  Theme = "CRYPTO"
	ThemeNature  Theme = "NATURE"
	ThemeMinimal Theme = "MINIMAL"
)

// Preferences are the canvas display settings.
type Preferences struct {
	Theme          Theme   `json:"theme"`
	ShowBreathing  bool    `json:"showBreathing"`
	ShowDrifting   bool    `json:"showDrifting"`
	ShowShimmering bool    `json:"showShimmering"`
	FontSize       int     `json:"fontSize"`
	Intensity      float64 `json:"intensity"`
	Transparency   float64 `json:"transparency"`
	Brightness     float64 `json:"brightness"`
	BubbleScale    float64 `json:"bubbleScale"`
}

// DefaultPreferences returns the out-of-the-box canvas settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:          ThemeCrypto,
		ShowBreathing:  true,
		ShowDrifting:   true,
		ShowShimmering: true,
		FontSize:       16,
		Intensity:      1,
		Transparency:   0.8,
		Brightness:     1,
		BubbleScale:    1,
	}
}

// Clamped returns p with every numeric setting inside its slider range.
func (p Preferences) Clamped() Preferences {
	switch p.Theme {
	case ThemeCrypto, ThemeNature, ThemeMinimal:
	default:
		p.Theme = ThemeCrypto
	}
	if p.FontSize < 10 {
		p.FontSize = 10
	} else if p.FontSize > 30 {
		p.FontSize = 30
	}
	p.Intensity = clamp(p.Intensity, 0, 2)
	p.Transparency = clamp(p.Transparency, 0, 1)
	p.Brightness = clamp(p.Brightness, 0, 2)
	p.BubbleScale = clamp(p.BubbleScale, 0, 2)
	return p
}

// UserProfile is the learner's identity and account-wide progression.
type UserProfile struct {
	School      string      `json:"school"`
	Level       string      `json:"level"`
	FullName    string      `json:"fullName,omitempty"`
	ClassName   string      `json:"className,omitempty"`
	Role        Role        `json:"role"`
	Rank        Rank        `json:"rank"`
	RankPoints  int         `json:"rankPoints"`
	Streak      int         `json:"streak"`
	Preferences Preferences `json:"preferences"`
}

// HasIdentity reports whether a name and class have been bound.
func (p UserProfile) HasIdentity() bool {
	return p.FullName != "" && p.ClassName != ""
}

// State is the versioned aggregate persisted as one blob.
type State struct {
	Version        int            `json:"version"`
	Profile        UserProfile    `json:"user_profile"`
	Topics         []Topic        `json:"topics"`
	SessionLog     []HistoryEntry `json:"session_log"`
	ViewMode       ViewMode       `json:"view_mode"`
	HasStarted     bool           `json:"has_started"`
	LastActivityAt *time.Time     `json:"last_activity_ts,omitempty"`
}

// DefaultState builds the initial state for a curriculum.
func DefaultState(topics []TopicContent) State {
	ts := make([]Topic, len(topics))
	for i, c := range topics {
		ts[i] = NewTopic(c)
	}
	return State{
		Version: StateVersion,
		Profile: UserProfile{
			School:      "KNTT - Địa 8",
			Level:       "HSG",
			Role:        RoleStudent,
			Rank:        RankBronze,
			Preferences: DefaultPreferences(),
		},
		Topics:     ts,
		SessionLog: []HistoryEntry{},
		ViewMode:   ViewStudentCanvas,
	}
}

func (s State) clone() State {
	topics := make([]Topic, len(s.Topics))
	for i, t := range s.Topics {
		topics[i] = t.clone()
	}
	s.Topics = topics
	s.SessionLog = append([]HistoryEntry{}, s.SessionLog...)
	if s.LastActivityAt != nil {
		at := *s.LastActivityAt
		s.LastActivityAt = &at
	}
	return s
}
