// Package eval runs JSONL regression suites against the assistant.
// Each case sends one input through a fresh session and applies hard
// phrase checks plus a soft coverage heuristic for multi-domain asks.
package eval

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed testdata/multi_domain_v1.jsonl
var builtinSuite []byte

// Case is one evaluation scenario.
type Case struct {
	ID              string            `json:"id"`
	Input           string            `json:"input"`
	IntentType      string            `json:"intent_type"`
	ExpectedDomains []string          `json:"expected_domains,omitempty"`
	MustContain     []string          `json:"must_contain,omitempty"`
	MustNotContain  []string          `json:"must_not_contain,omitempty"`
	ProfileHints    map[string]string `json:"profile_hints,omitempty"`
}

// LoadCases parses a JSONL stream, one case per line, skipping blanks.
func LoadCases(r io.Reader) ([]Case, error) {
	var cases []Case
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if c.ID == "" || c.Input == "" {
			return nil, fmt.Errorf("line %d: case needs id and input", lineNo)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases found")
	}
	return cases, nil
}

// LoadFile loads a JSONL suite from disk.
func LoadFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open eval file: %w", err)
	}
	defer f.Close()
	cases, err := LoadCases(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// BuiltinCases returns the suite shipped with the binary.
func BuiltinCases() ([]Case, error) {
	return LoadCases(bytes.NewReader(builtinSuite))
}

func containsAll(text string, snippets []string) (missing []string) {
	lower := strings.ToLower(text)
	for _, s := range snippets {
		if !strings.Contains(lower, strings.ToLower(s)) {
			missing = append(missing, s)
		}
	}
	return missing
}

func containsAny(text string, snippets []string) (found []string) {
	lower := strings.ToLower(text)
	for _, s := range snippets {
		if strings.Contains(lower, strings.ToLower(s)) {
			found = append(found, s)
		}
	}
	return found
}
