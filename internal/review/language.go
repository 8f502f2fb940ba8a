package review

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".rs":    "Rust",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".cc":    "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".scala": "Scala",
	".sh":    "Shell",
	".bash":  "Shell",
	".sql":   "SQL",
	".html":  "HTML",
	".css":   "CSS",
	".scss":  "CSS",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".toml":  "TOML",
	".md":    "Markdown",
	".proto": "Protocol Buffers",
	".tf":    "Terraform",
}

// DetectLanguage maps a file path to a language name by extension
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extLanguages[ext]; ok {
		return lang
	}
	switch filepath.Base(path) {
	case "Dockerfile":
		return "Dockerfile"
	case "Makefile":
		return "Makefile"
	}
	return "Unknown"
}
