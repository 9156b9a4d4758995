// Package capturedate resolves the year and month a media file was captured.
//
// Images are checked for EXIF metadata first; when that fails, and for all
// videos, a set of filename conventions from common cameras and messaging
// apps is tried. Resolution is best effort and never returns an error: a
// file that matches nothing simply reports no date.
package capturedate

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Date is a resolved capture year and month, both as zero-padded strings
// ("2021", "07").
type Date struct {
	Year  string
	Month string
}

// filename conventions, most specific first. Each pattern captures year and
// month as the first two groups unless handled specially.
var (
	// IMG_20210704_101530.jpg, VID_20191201_..., PXL_20230115_...
	prefixedTimestamp = regexp.MustCompile(`(?i)^(?:IMG|VID|PXL|PANO|MVIMG)[-_](\d{4})(\d{2})(\d{2})`)
	// IMG-20210704-WA0001.jpg (WhatsApp)
	whatsApp = regexp.MustCompile(`(?i)^(?:IMG|VID)-(\d{4})(\d{2})(\d{2})-WA\d+`)
	// 2021-07-04 anywhere in the name
	dashedDate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	// bare 20210704 anywhere in the name
	compactDate = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	// 13-digit unix millisecond timestamp (common for exported chat media)
	unixMillis = regexp.MustCompile(`(?:^|[^\d])(\d{13})(?:[^\d]|$)`)
)

// Resolver resolves capture dates using the configured extension sets to
// decide which strategies apply.
type Resolver struct {
	isImage func(path string) bool
}

// NewResolver returns a Resolver that treats paths accepted by isImage as
// EXIF candidates.
func NewResolver(isImage func(path string) bool) *Resolver {
	return &Resolver{isImage: isImage}
}

// Resolve returns the capture date for the file at path. The second return
// is false when no strategy produced a plausible date.
func (r *Resolver) Resolve(path, name string) (Date, bool) {
	if r.isImage != nil && r.isImage(path) {
		if d, ok := fromEXIF(path); ok {
			return d, true
		}
	}
	return FromFilename(name)
}

func fromEXIF(path string) (Date, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Date{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Date{}, false
	}
	when, err := x.DateTime()
	if err != nil {
		return Date{}, false
	}
	return fromTime(when)
}

// FromFilename resolves a capture date from the base name alone.
func FromFilename(name string) (Date, bool) {
	for _, re := range []*regexp.Regexp{prefixedTimestamp, whatsApp, dashedDate, compactDate} {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if d, ok := fromParts(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := unixMillis.FindStringSubmatch(name); m != nil {
		millis, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			if d, ok := fromTime(time.UnixMilli(millis).UTC()); ok {
				return d, true
			}
		}
	}
	return Date{}, false
}

func fromParts(year, month, day string) (Date, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || !plausibleYear(y) {
		return Date{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Date{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return Date{}, false
	}
	return Date{Year: year, Month: month}, true
}

func fromTime(when time.Time) (Date, bool) {
	if !plausibleYear(when.Year()) {
		return Date{}, false
	}
	return Date{
		Year:  strconv.Itoa(when.Year()),
		Month: padMonth(int(when.Month())),
	}, true
}

func padMonth(m int) string {
	if m < 10 {
		return "0" + strconv.Itoa(m)
	}
	return strconv.Itoa(m)
}

// plausibleYear rejects matches that are numerically valid but cannot be a
// capture year for digital media.
func plausibleYear(y int) bool {
	return y >= 1990 && y <= time.Now().Year()+1
}
