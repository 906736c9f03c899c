// Package analysis produces the per-video analysis report.
package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/kapu/creator-insight-go/internal/domain"
)

// Fingerprint digests the mutable content fields of a video. Tag order and
// case do not matter. The digest is stable across processes.
func Fingerprint(v *domain.Video) string {
	if v == nil {
		return ""
	}

	tags := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	d := xxhash.New()
	writeField(d, "title", strings.TrimSpace(v.Title))
	writeField(d, "description", strings.TrimSpace(v.Description))
	writeField(d, "tags", strings.Join(tags, "\x1f"))
	writeField(d, "duration", strconv.Itoa(v.DurationSeconds))
	writeField(d, "category", strings.TrimSpace(v.CategoryID))

	return fmt.Sprintf("%016x", d.Sum64())
}

func writeField(d *xxhash.Digest, name, value string) {
	_, _ = d.WriteString(name)
	_, _ = d.WriteString("=")
	_, _ = d.WriteString(strconv.Itoa(len(value)))
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(value)
	_, _ = d.WriteString("\x1e")
}
