package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the canonical zero-padded date form used for every comparison.
const DateLayout = "2006-01-02"

var (
	localizedDate = regexp.MustCompile(`(\d+)年(\d+)月(\d+)日`)
	hyphenDate    = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// NormalizeDate converts free text containing a date into YYYY-MM-DD.
//
// Two forms are recognized, in order: "2024年3月9日" and "2024-3-9". Matching is a search,
// so surrounding text such as an episode count is ignored. Components are padded, not validated:
// "2024年13月40日" yields "2024-13-40".
func NormalizeDate(s string) (string, error) {
	for _, re := range []*regexp.Regexp{localizedDate, hyphenDate} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		parts := make([]int, 3)
		for i, raw := range m[1:] {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return "", fmt.Errorf("%w: %q", ErrUnrecognizedDate, s)
			}
			parts[i] = n
		}
		return fmt.Sprintf("%04d-%02d-%02d", parts[0], parts[1], parts[2]), nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnrecognizedDate, s)
}

// Today returns the canonical date of now in loc. A nil loc means local time.
func Today(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}
