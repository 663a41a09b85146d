package henkan

import "time"

// dateReadings are the readings the date source answers, mapped to a
// day offset from today.
var dateReadings = map[string]int{
	"きょう":  0,
	"あした":  1,
	"あす":   1,
	"きのう":  -1,
	"おととい": -2,
	"あさって": 2,
}

// DateSource is a dynamic single-term source that turns readings like
// きょう into the corresponding date strings. These candidates are
// computed per lookup and must never enter the user model (a date
// memorized today would be wrong tomorrow), which is why single-term
// candidates are tracked separately from lattice output.
type DateSource struct {
	priority int
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewDateSource returns a date source with the given priority class.
func NewDateSource(priority int) *DateSource {
	return &DateSource{priority: priority, now: time.Now}
}

// Name implements DynamicSource.
func (s *DateSource) Name() string { return "date" }

// Priority implements DynamicSource.
func (s *DateSource) Priority() int { return s.priority }

// Candidates implements DynamicSource.
func (s *DateSource) Candidates(reading string) []string {
	offset, ok := dateReadings[reading]
	if !ok {
		return nil
	}
	d := s.now().AddDate(0, 0, offset)
	return []string{
		d.Format("2006-01-02"),
		d.Format("2006年01月02日"),
	}
}
