package sqlgen

import (
	"regexp"
	"strings"
)

// Keywords that must never appear as a whole token in generated SQL.
// "explain" is included to avoid leaking plans / executing EXPLAIN ANALYZE.
var forbiddenKeywords = map[string]struct{}{
	"insert": {}, "update": {}, "delete": {}, "merge": {}, "upsert": {},
	"drop": {}, "alter": {}, "create": {}, "truncate": {}, "vacuum": {},
	"analyze": {}, "grant": {}, "revoke": {}, "call": {}, "do": {},
	"copy": {}, "listen": {}, "notify": {}, "set": {}, "explain": {},
}

var (
	fenceRe        = regexp.MustCompile("(?is)```sql|```")
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	singleQuoteRe  = regexp.MustCompile(`(?s)'([^'\\]|\\.|'')*'`)
	doubleQuoteRe  = regexp.MustCompile(`(?s)"([^"\\]|\\.|"")*"`)
	identifierRe   = regexp.MustCompile(`[a-z0-9_$]+`)
)

// Sanitize strips markdown code fences, trims whitespace and removes a
// single trailing statement terminator.
func Sanitize(raw string) string {
	s := fenceRe.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// IsReadOnly is the deterministic guardrail: it never trusts the model.
//
//   - Rejects multiple statements (any remaining ';').
//   - Removes comments and string literals to avoid false keyword hits.
//   - Requires the leading token to be SELECT or WITH.
//   - Rejects any forbidden keyword appearing as a whole token, so an
//     identifier like update_date never trips the update rule.
func IsReadOnly(sql string) bool {
	if strings.TrimSpace(sql) == "" {
		return false
	}

	if strings.Contains(sql, ";") {
		return false
	}

	cleaned := stripComments(stripStringLiterals(sql))
	cleaned = strings.ToLower(strings.TrimSpace(cleaned))

	if !strings.HasPrefix(cleaned, "select") && !strings.HasPrefix(cleaned, "with") {
		return false
	}

	for _, token := range identifierRe.FindAllString(cleaned, -1) {
		if _, forbidden := forbiddenKeywords[token]; forbidden {
			return false
		}
	}
	return true
}

// stripComments removes -- line comments and /* block */ comments.
func stripComments(s string) string {
	return blockCommentRe.ReplaceAllString(lineCommentRe.ReplaceAllString(s, ""), "")
}

// stripStringLiterals replaces single- and double-quoted literals so their
// contents cannot produce false keyword matches.
func stripStringLiterals(s string) string {
	return doubleQuoteRe.ReplaceAllString(singleQuoteRe.ReplaceAllString(s, "''"), `""`)
}
