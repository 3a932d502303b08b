package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokenize splits an identifier or data path into its words.
// Separators (_, -, space, .) always split; CamelCase transitions split too.
// Examples:
//   - "full_name" -> ["full", "name"]
//   - "OrderID" -> ["Order", "ID"]
//   - "user.firstName" -> ["user", "first", "Name"]
//   - "XMLParser" -> ["XML", "Parser"]
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && shouldStartNewToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// Pascal joins the words of s in PascalCase: "full_name" -> "FullName".
// Upper-case runs such as "ID" are kept as they are.
func Pascal(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder

	for _, tok := range Tokenize(s) {
		b.WriteString(caser.String(tok))
	}

	return b.String()
}

// Camel is Pascal with a lower-cased first rune: "full_name" -> "fullName".
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}

	runes := []rune(p)
	runes[0] = unicode.ToLower(runes[0])

	return string(runes)
}

// HookName builds a conventional hook method name for a field,
// e.g. HookName("To", "full_name", "Attribute") = "ToFullNameAttribute".
func HookName(prefix, field, suffix string) string {
	return prefix + Pascal(field) + suffix
}

// Snake joins the lower-cased words of s with underscores: "OrderID" -> "order_id".
func Snake(s string) string {
	tokens := Tokenize(s)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}

	return strings.Join(tokens, "_")
}

// Fold normalizes an identifier for loose comparison: words are joined
// and lower-cased, so "full_name", "FullName" and "fullName" fold equal.
func Fold(s string) string {
	return strings.ToLower(strings.Join(Tokenize(s), ""))
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// shouldStartNewToken determines if a new token should start at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]
	isUpper := unicode.IsUpper(r)
	isPrevUpper := unicode.IsUpper(prev)

	// "orderID" -> split before 'I'
	if isUpper && !isPrevUpper && !isSeparator(prev) {
		return true
	}

	// "XMLParser" -> split before 'P'
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return isUpper && isPrevUpper && hasNextLower
}
