package shared

import (
	"os"
	"runtime"
	"strconv"
	"time"
	"unicode/utf16"
)

// DeviceFingerprint identifies this machine for remembered sign-in details.
//
// It hashes host name, platform and local time zone, so moving the database to another machine invalidates the entry.
func DeviceFingerprint() string {
	host, _ := os.Hostname()
	zone, _ := time.Now().Zone()
	return HashFingerprint(host + "|" + runtime.GOOS + "/" + runtime.GOARCH + "|" + zone)
}

// HashFingerprint folds s into a 32-bit string hash (h*31 + c over UTF-16 code units) rendered in base 36.
func HashFingerprint(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	return strconv.FormatInt(n, 36)
}
