package m3u

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Inline parameter names recognized after the '|' of a locator line.
const (
	paramUserAgent = "user-agent"
	paramReferer   = "referer"
)

var (
	reScheme    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
	reDrivePath = regexp.MustCompile(`^[A-Za-z]:[\\/]`)
)

// Locator is a payload line split into its playback locator and inline
// parameters.
type Locator struct {
	Base      string
	Params    string
	UserAgent string
	Referrer  string
	Valid     bool
}

// Resolve splits a payload line on its first '|' and validates the base.
// The base is valid when it is an absolute http(s) URL or, if acceptPaths
// is set, a plausible filesystem path.
func Resolve(payload string, acceptPaths bool) Locator {
	s := strings.TrimSpace(payload)
	base, params, _ := strings.Cut(s, "|")
	loc := Locator{
		Base:      base,
		Params:    params,
		UserAgent: ExtractParameter(params, paramUserAgent),
		Referrer:  ExtractParameter(params, paramReferer),
	}
	loc.Valid = IsHTTPURL(base) || (acceptPaths && IsPath(base))
	return loc
}

// IsHTTPURL reports whether s parses as an absolute http or https URL with
// a host. A '%' that does not start an escape is taken literally, as
// browsers do, and ports must fit in 16 bits.
func IsHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(escapeStrayPercent(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return false
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n > 65535 {
			return false
		}
	}
	return true
}

// escapeStrayPercent rewrites every '%' not followed by two hex digits
// as "%25".
func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// IsPath reports whether s looks like a local or network filesystem path.
// The check is syntactic only; the path is never opened.
func IsPath(s string) bool {
	if strings.TrimSpace(s) == "" || strings.HasPrefix(s, "#") {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	if len(s) > len("file://") && strings.EqualFold(s[:len("file://")], "file://") {
		return true
	}
	if reScheme.MatchString(s) {
		return false
	}
	for _, p := range []string{"/", "~/", "./", "../", `\\`, `.\`, `..\`} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	if reDrivePath.MatchString(s) {
		return true
	}
	i := strings.LastIndexAny(s, `/\`)
	if i < 0 {
		return false
	}
	ext := path.Ext(s[i+1:])
	return len(ext) > 1
}
