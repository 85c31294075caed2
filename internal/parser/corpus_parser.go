// Package parser reads the historical corpus of solved keys fed to the path
// frequency analyzer.
package parser

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
)

// ErrEmptyCorpus is returned when a corpus contains no usable key.
var ErrEmptyCorpus = errors.New("corpus contains no keys")

// Corpus is an ordered list of solved keys.
type Corpus struct {
	Keys []*big.Int
	// Skipped counts entries that were present but not numeric.
	Skipped int
}

// CorpusParser defines the interface for parsing a corpus from various sources.
type CorpusParser interface {
	// Parse reads a corpus from r.
	Parse(r io.Reader) (*Corpus, error)
}

// ParseFile opens source and parses it with p.
func ParseFile(p CorpusParser, source string) (*Corpus, error) {
	file, err := os.Open(source) //nolint:gosec // operator-chosen path
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	c, err := p.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return c, nil
}

// NewParser returns the parser for format ("text", "csv" or "json").
func NewParser(format string) (CorpusParser, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return &TextParser{}, nil
	case "csv":
		return &CSVParser{}, nil
	case "json":
		return &JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

// TextParser reads one key per line. Blank lines and lines starting with #
// are ignored; other non-numeric lines are counted as skipped.
type TextParser struct{}

// Parse implements CorpusParser.
func (p *TextParser) Parse(r io.Reader) (*Corpus, error) {
	c := &Corpus{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, err := parseBigInt(line)
		if err != nil {
			c.Skipped++
			continue
		}
		c.Keys = append(c.Keys, k)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return c.checked()
}

// CSVParser reads keys from a named column.
type CSVParser struct {
	KeyCol string // Column name for the key (default: "key")
}

// Parse implements CorpusParser.
func (p *CSVParser) Parse(r io.Reader) (*Corpus, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	keyCol := p.KeyCol
	if keyCol == "" {
		keyCol = "key"
	}
	idx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), keyCol) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("missing required column %q", keyCol)
	}

	c := &Corpus{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if idx >= len(record) || strings.TrimSpace(record[idx]) == "" {
			c.Skipped++
			continue
		}
		k, err := parseBigInt(record[idx])
		if err != nil {
			c.Skipped++
			continue
		}
		c.Keys = append(c.Keys, k)
	}
	return c.checked()
}

// JSONParser reads a JSON array of numbers or numeric strings, or an array of
// objects carrying the key under Field.
type JSONParser struct {
	Field string // Field name when items are objects (default: "key")
}

// Parse implements CorpusParser.
func (p *JSONParser) Parse(r io.Reader) (*Corpus, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var items []interface{}
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	field := p.Field
	if field == "" {
		field = "key"
	}

	c := &Corpus{}
	for i, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			v, ok := obj[field]
			if !ok {
				return nil, fmt.Errorf("item %d: missing %s field", i, field)
			}
			item = v
		}
		k, err := parseBigInt(item)
		if err != nil {
			c.Skipped++
			continue
		}
		c.Keys = append(c.Keys, k)
	}
	return c.checked()
}

func (c *Corpus) checked() (*Corpus, error) {
	if len(c.Keys) == 0 {
		return nil, ErrEmptyCorpus
	}
	return c, nil
}

// parseBigInt reads a positive key. Strings are decimal unless they carry a
// 0x prefix; solved puzzle keys routinely exceed 20 decimal digits, so digit
// count says nothing about the base.
func parseBigInt(val interface{}) (*big.Int, error) {
	var (
		s    string
		base = 10
	)
	switch v := val.(type) {
	case string:
		s = strings.TrimSpace(v)
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			s, base = s[2:], 16
		}
	case json.Number:
		s = string(v)
	case int64:
		s = fmt.Sprint(v)
	case int:
		s = fmt.Sprint(v)
	default:
		return nil, fmt.Errorf("unsupported type: %T", val)
	}

	z, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid number format: %v", val)
	}
	if z.Sign() <= 0 {
		return nil, fmt.Errorf("key must be >= 1: %v", val)
	}
	return z, nil
}
