package research

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlainTextPassesThrough(t *testing.T) {
	path := writeFile(t, "notes.md", "# Interviews\nusers want faster onboarding")

	corpus, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "# Interviews\nusers want faster onboarding", corpus)
}

func TestLoadJSONNormalizes(t *testing.T) {
	path := writeFile(t, "survey.json", `{"respondents":42,"themes":["speed","trust"]}`)

	corpus, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, corpus, "\"respondents\": 42")
	assert.Contains(t, corpus, "\"speed\"")
}

func TestLoadJSONRejectsMalformed(t *testing.T) {
	path := writeFile(t, "survey.json", `{broken`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "survey.yaml", "themes:\n  - speed\n  - trust\n")

	corpus, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, corpus, "speed")
}

func TestLoadHTMLExtractsMainText(t *testing.T) {
	path := writeFile(t, "report.html", `<html><body>
		<nav>Home | About</nav>
		<script>alert("hi")</script>
		<main><h1>Findings</h1><p>Users   abandon signup when forms are long.</p></main>
		<footer>Copyright</footer>
	</body></html>`)

	corpus, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, corpus, "Users abandon signup")
	assert.NotContains(t, corpus, "Home | About")
	assert.NotContains(t, corpus, "alert")
	assert.NotContains(t, corpus, "Copyright")
}

func TestLoadHTMLFallsBackToBody(t *testing.T) {
	path := writeFile(t, "plain.html", `<html><body><p>raw observations</p></body></html>`)

	corpus, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "raw observations", corpus)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
