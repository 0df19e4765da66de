// Template loading. The fixed prompt wording lives in JSON files embedded at
// compile time, keyed by template name, so it can change without touching Go
// code.

package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var templateFS embed.FS

var (
	templatesMu sync.Mutex
	templates   = make(map[string]map[string]string)
)

// Get returns the template stored under key in the given embedded file.
func Get(filename, key string) (string, error) {
	set, err := templateSet(filename)
	if err != nil {
		return "", err
	}

	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("template %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get for templates the pipeline cannot run without.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Format substitutes {{.Key}} placeholders with values from data. Unmatched
// placeholders are left in place.
func Format(template string, data map[string]string) string {
	for key, value := range data {
		template = strings.ReplaceAll(template, "{{."+key+"}}", value)
	}
	return template
}

// templateSet parses an embedded template file once and caches it.
func templateSet(filename string) (map[string]string, error) {
	templatesMu.Lock()
	defer templatesMu.Unlock()

	if set, ok := templates[filename]; ok {
		return set, nil
	}

	data, err := templateFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("no template file %s: %w", filename, err)
	}

	var set map[string]string
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("malformed template file %s: %w", filename, err)
	}

	templates[filename] = set
	return set, nil
}
