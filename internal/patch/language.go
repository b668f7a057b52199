package patch

import (
	"path"
	"strings"
)

// LanguagePlaintext is returned for any filename without a known extension.
const LanguagePlaintext = "plaintext"

var languageByExtension = map[string]string{
	"ts":   "typescript",
	"tsx":  "typescript",
	"js":   "javascript",
	"jsx":  "javascript",
	"py":   "python",
	"java": "java",
	"rb":   "ruby",
	"go":   "go",
	"rs":   "rust",
	"kt":   "kotlin",
	"css":  "css",
	"scss": "scss",
	"md":   "markdown",
	"yml":  "yaml",
	"yaml": "yaml",
	"json": "json",
	"sql":  "sql",
}

// LanguageFor maps a filename to a syntax-highlighting language id.
func LanguageFor(filename string) string {
	base := path.Base(filename)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return LanguagePlaintext
	}

	if lang, ok := languageByExtension[strings.ToLower(base[idx+1:])]; ok {
		return lang
	}
	return LanguagePlaintext
}
