package route

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Percent returns floor(100*received/expected), capped at 100.
func Percent(received, expected int64) int {
	if expected <= 0 {
		return 0
	}
	return int(min(received*100/expected, 100))
}

// FormatSize formats a byte count using 1024-based units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}

// ParamID returns the resource id carried by param, or 0.
func ParamID(param any) int {
	switch v := param.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	default:
		return 0
	}
}

// between returns the text of s between the first start and the
// following end, or "".
func between(s, start, end string) string {
	_, rest, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	v, _, ok := strings.Cut(rest, end)
	if !ok {
		return ""
	}
	return v
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sanitizeFileName replaces characters that are invalid in file names.
func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return -1
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}

// redirectPath keeps the directory of current and takes the file name
// from location.
func redirectPath(current, location string) (string, bool) {
	u, err := url.Parse(location)
	if err != nil {
		return "", false
	}

	file := sanitizeFileName(path.Base(u.Path))
	switch file {
	case "", ".", "..", "/":
		return "", false
	}

	return filepath.Join(filepath.Dir(current), file), true
}
