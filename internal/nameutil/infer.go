// Package nameutil derives short, stable names for the served API.
package nameutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultServerName is used when neither the document title nor its file
// name yields anything usable.
const DefaultServerName = "specmcp"

// genericWords carry no meaning in a server name and are dropped.
var genericWords = map[string]bool{
	"api":           true,
	"apis":          true,
	"openapi":       true,
	"swagger":       true,
	"spec":          true,
	"specification": true,
	"rest":          true,
	"http":          true,
	"service":       true,
	"the":           true,
}

// versionWord matches v1, v2beta, 3 and the like.
var versionWord = regexp.MustCompile(`^v?\d+[a-z0-9]*$`)

// InferServerName picks the MCP server name for a document: the slugified
// info title without generic and version words, else the same treatment of
// the file's base name, else DefaultServerName.
func InferServerName(title, source string) string {
	if name := meaningful(title); name != "" {
		return name
	}
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if name := meaningful(base); name != "" {
		return name
	}
	return DefaultServerName
}

func meaningful(s string) string {
	var kept []string
	for _, word := range strings.Split(Slugify(s), "-") {
		if word == "" || genericWords[word] || versionWord.MatchString(word) {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, "-")
}
