package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var isoDurationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// plainText strips the markup the API puts into textDisplay (links, <br>, entities).
func plainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	html = strings.ReplaceAll(html, "<br>", "\n")
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(doc.Text())
}

// parseISODuration converts contentDetails.duration (e.g. PT1H2M3S) to seconds.
func parseISODuration(value string) (int, error) {
	if value == "" || value == "P0D" {
		return 0, nil
	}
	m := isoDurationRegex.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", value)
	}

	total := 0
	for i, mult := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", value, err)
		}
		total += n * mult
	}
	return total, nil
}
