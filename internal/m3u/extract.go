package m3u

import (
	"regexp"
	"strings"
	"sync"
)

var (
	reQuotedValue = regexp.MustCompile(`="(.*?)"`)
	reValue       = regexp.MustCompile(`:(.*)`)
)

// patterns caches compiled per-key expressions, keyed by "kind\x00key".
var patterns sync.Map

func pattern(kind, key, expr string) *regexp.Regexp {
	k := kind + "\x00" + key
	if re, ok := patterns.Load(k); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(expr)
	actual, _ := patterns.LoadOrStore(k, re)
	return actual.(*regexp.Regexp)
}

// submatch returns the first capture group of re in s, or "".
func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ExtractName returns the display name of an #EXTINF line: the text after
// the first comma once every quoted attribute value has been removed.
func ExtractName(line string) string {
	info := reQuotedValue.ReplaceAllString(line, "")
	_, name, ok := strings.Cut(info, ",")
	if !ok {
		return ""
	}
	return name
}

// ExtractAttribute returns the value of key="value" in line, matching the
// key case-insensitively. The first occurrence wins. A value cannot contain
// a double quote: the first one closes it.
func ExtractAttribute(line, key string) string {
	re := pattern("attr", key, `(?i)`+regexp.QuoteMeta(key)+`="(.*?)"`)
	return submatch(re, line)
}

// ExtractOption returns the rest of the line after ":key=", with double
// quotes removed.
func ExtractOption(line, key string) string {
	re := pattern("opt", key, `(?i):`+regexp.QuoteMeta(key)+`=(.*)`)
	return stripQuotes(submatch(re, line))
}

// ExtractValue returns the rest of the line after the first colon, with
// double quotes removed.
func ExtractValue(line string) string {
	return stripQuotes(submatch(reValue, line))
}

// ExtractParameter returns the value of key=value in an inline parameter
// string. The value must start with a word character and runs until the
// next '&' or the end of the string.
func ExtractParameter(params, key string) string {
	re := pattern("param", key, `(?i)`+regexp.QuoteMeta(key)+`=(\w[^&]*)`)
	return submatch(re, params)
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
