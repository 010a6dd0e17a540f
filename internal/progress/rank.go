package progress

import "fmt"

// Rank is the account-wide progression tier, 1 (lowest) to 7.
type Rank int

const (
	RankBronze Rank = iota + 1
	RankSilver
	RankGold
	RankPlatinum
	RankDiamond
	RankMaster
	RankChallenger
)

var rankNames = map[Rank]string{
	RankBronze:     "Đồng",
	RankSilver:     "Bạc",
	RankGold:       "Vàng",
	RankPlatinum:   "Bạch Kim",
	RankDiamond:    "Kim Cương",
	RankMaster:     "Cao Thủ",
	RankChallenger: "Thách Đấu",
}

// rankThresholds[i] is the first point total of tier i+2.
var rankThresholds = []int{500, 1500, 3000, 5000, 8000, 12000}

// RankForPoints maps a point total to its tier. Each threshold belongs to
// the higher tier. Negative totals map to the lowest tier.
func RankForPoints(points int) Rank {
	r := RankBronze
	for _, threshold := range rankThresholds {
		if points < threshold {
			break
		}
		r++
	}
	return r
}

// NextRankAt returns the point total needed for the next tier, or false at the top.
func NextRankAt(r Rank) (int, bool) {
	i := int(r) - 1
	if i < 0 || i >= len(rankThresholds) {
		return 0, false
	}
	return rankThresholds[i], true
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

// MarshalText encodes the rank by its display name.
func (r Rank) MarshalText() ([]byte, error) {
	if _, ok := rankNames[r]; !ok {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts a display name.
func (r *Rank) UnmarshalText(b []byte) error {
	for rank, name := range rankNames {
		if name == string(b) {
			*r = rank
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", string(b))
}
