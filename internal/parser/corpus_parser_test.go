package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(c *Corpus) []string {
	out := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		out[i] = k.String()
	}
	return out
}

func TestTextParser_Parse(t *testing.T) {
	input := `# solved puzzle keys
1
3

7
not-a-number
0x1f
-4
1955232523433098211
`
	c, err := (&TextParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "7", "31", "1955232523433098211"}, keysOf(c))
	assert.Equal(t, 2, c.Skipped)
}

func TestCSVParser_Parse(t *testing.T) {
	input := "puzzle,Key,address\n1,1,a\n2,3,b\n3,,c\n4,x,d\n5,0x8,e\n"
	c, err := (&CSVParser{}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "8"}, keysOf(c))
	assert.Equal(t, 2, c.Skipped)

	_, err = (&CSVParser{KeyCol: "private"}).Parse(strings.NewReader(input))
	require.Error(t, err)
}

func TestJSONParser_Parse(t *testing.T) {
	c, err := (&JSONParser{}).Parse(strings.NewReader(`[1, "3", 11111111111111111111111111, "0xff", true]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "11111111111111111111111111", "255"}, keysOf(c))
	assert.Equal(t, 1, c.Skipped)

	c, err = (&JSONParser{Field: "k"}).Parse(strings.NewReader(`[{"k": 5}, {"k": "6"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "6"}, keysOf(c))

	_, err = (&JSONParser{}).Parse(strings.NewReader(`[{"other": 5}]`))
	require.Error(t, err)
}

func TestParsers_EmptyCorpus(t *testing.T) {
	_, err := (&TextParser{}).Parse(strings.NewReader("# nothing\n\n"))
	require.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = (&JSONParser{}).Parse(strings.NewReader(`[]`))
	require.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.txt")
	require.NoError(t, os.WriteFile(path, []byte("2\n5\n"), 0o600))

	p, err := NewParser("text")
	require.NoError(t, err)
	c, err := ParseFile(p, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5"}, keysOf(c))

	_, err = ParseFile(p, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	_, err = NewParser("xml")
	require.Error(t, err)
}
