package detect

import (
	"path/filepath"
	"strings"
)

// LanguagePlaintext is the sentinel language for unrecognized extensions.
const LanguagePlaintext = "plaintext"

// extensionLanguages maps file extensions to language identifiers. The table
// is static; unknown extensions fall back to LanguagePlaintext.
var extensionLanguages = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".js":    "javascript",
	".jsx":   "javascriptreact",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".py":    "python",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".swift": "swift",
	".scala": "scala",
	".lua":   "lua",
	".zig":   "zig",
	".ml":    "ocaml",
	".ex":    "elixir",
	".exs":   "elixir",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".zsh":   "shellscript",
	".sql":   "sql",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".md":    "markdown",
	".proto": "protobuf",
	".tf":    "terraform",
}

// Language returns the language identifier for a file path based on its
// extension, or LanguagePlaintext when the extension is unknown.
func Language(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return LanguagePlaintext
}

// KnownExtensions returns the extensions with a language mapping. The result
// is a copy; callers may mutate it.
func KnownExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	return exts
}
