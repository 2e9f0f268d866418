package naming

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/csvload/pkg/csvload"
)

var (
	nonIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	repeatedUnder = regexp.MustCompile(`_+`)
)

// UnnamedColumnPrefix prefixes the generated name of a header cell that
// normalizes to nothing.
const UnnamedColumnPrefix = "unnamed_"

// IsCSV reports whether fileName carries one of csvload.SupportedExtensions,
// ignoring case.
func IsCSV(fileName string) bool {
	lower := strings.ToLower(filepath.Base(fileName))
	for _, ext := range csvload.SupportedExtensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}

// TrimExtension removes a recognised CSV suffix (including compressed
// variants) from a file name. Other names lose their last extension.
func TrimExtension(fileName string) string {
	base := filepath.Base(fileName)
	lower := strings.ToLower(base)
	for _, ext := range csvload.SupportedExtensions {
		if strings.HasSuffix(lower, ext) && len(base) > len(ext) {
			return base[:len(base)-len(ext)]
		}
	}
	if ext := filepath.Ext(base); ext != "" && len(base) > len(ext) {
		return base[:len(base)-len(ext)]
	}
	return base
}

// TableName derives the target table name from a file name: the extension
// is stripped, hyphens, spaces and dots become underscores and the result is
// lower-cased. Any other character outside [a-z0-9_] also becomes an
// underscore. Names are cut to csvload.MaxIdentifierLength bytes, so two
// files that PostgreSQL would store under the same name derive the same name.
//
//	TableName("sales-2023.csv")  == "sales_2023"
//	TableName("Crm.User.csv")    == "crm_user"
func TableName(fileName string) string {
	stem := strings.ToLower(TrimExtension(fileName))
	return truncate(nonIdentChars.ReplaceAllString(stem, "_"), csvload.MaxIdentifierLength)
}

// ColumnName normalizes one header cell: characters outside [a-zA-Z0-9_]
// become underscores, runs of underscores collapse, leading and trailing
// underscores are trimmed and the result is lower-cased and cut to
// csvload.MaxIdentifierLength bytes. The result may be empty;
// NormalizeHeaders deals with that case.
func ColumnName(raw string) string {
	s := nonIdentChars.ReplaceAllString(raw, "_")
	s = repeatedUnder.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	s = truncate(strings.ToLower(s), csvload.MaxIdentifierLength)
	return strings.TrimRight(s, "_")
}

// NormalizeHeaders normalizes a full header row. Cells that normalize to
// nothing are named unnamed_<position>, and names already taken get a
// numeric suffix (_2, _3, ...) so every column of the table is distinct.
func NormalizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	taken := make(map[string]bool, len(headers))

	for i, h := range headers {
		name := ColumnName(h)
		if name == "" {
			name = UnnamedColumnPrefix + strconv.Itoa(i)
		}
		if taken[name] {
			base := name
			for n := 2; taken[name]; n++ {
				suffix := "_" + strconv.Itoa(n)
				name = strings.TrimRight(truncate(base, csvload.MaxIdentifierLength-len(suffix)), "_") + suffix
			}
		}
		taken[name] = true
		out[i] = name
	}

	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
