package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/bgmx/internal/models"
	"github.com/desertthunder/bgmx/internal/shared"
)

const (
	itemSelector  = "#browserItemList li.item"
	coverSelector = ".subjectCover"
	dateSelector  = ".info.tip"
)

// singleEpisode matches "1话" preceded by a non-digit, so "全1话" matches but "11话" and "21话" do not.
var singleEpisode = regexp.MustCompile(`\D1话`)

// ParseEntries returns the dated entries of a wish-list page in document order.
//
// Items without a cover link are dropped silently. Movie-like items (a single episode),
// items without a date node and items whose date cannot be normalized are dropped with a log line.
// The returned error is non-nil only when the markup cannot be read.
func ParseEntries(html string, logger *log.Logger) ([]models.Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrParseFailed, err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	entries := []models.Entry{}
	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		if entry, ok := parseItem(item, logger); ok {
			entries = append(entries, entry)
		}
	})

	return entries, nil
}

func parseItem(item *goquery.Selection, logger *log.Logger) (models.Entry, bool) {
	cover := item.Find(coverSelector).First()
	if cover.Length() == 0 {
		return models.Entry{}, false
	}

	href, ok := cover.Attr("href")
	if !ok {
		return models.Entry{}, false
	}
	subjectID := SubjectID(href)
	if subjectID == "" {
		logger.Warn("cover link has no subject id", "href", href)
		return models.Entry{}, false
	}

	if singleEpisode.MatchString(strings.TrimSpace(item.Text())) {
		logger.Info("skipping single-episode subject, likely a movie", "subject", subjectID)
		return models.Entry{}, false
	}

	tip := item.Find(dateSelector).First()
	if tip.Length() == 0 {
		logger.Warn("subject has no date", "subject", subjectID)
		return models.Entry{}, false
	}

	raw := strings.TrimSpace(tip.Text())
	date, err := shared.NormalizeDate(raw)
	if err != nil {
		logger.Warn("skipping subject", "subject", subjectID, "err", err)
		return models.Entry{}, false
	}

	entry := models.Entry{SubjectID: subjectID, Date: date}
	logger.Info("found subject", "subject", subjectID, "date", date)
	return entry, true
}

// SubjectID returns the last "/"-separated segment of a cover href such as "/subject/400602".
func SubjectID(href string) string {
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
