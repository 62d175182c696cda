package driver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

const scriptsDebug = false

// Expectation is the outcome a script declares in its comments.
type Expectation struct {
	ResultType string // "value", "runtime_error", "syntax_error"
	Value      string // expected value, or a substring of the error
}

var expectRegex = regexp.MustCompile(`^//\s*(expect(?:_runtime_error|_syntax_error)?):\s*(.*)`)

// parseExpectation finds the first line of the form
//
//	// expect: value
//	// expect_runtime_error: message
//	// expect_syntax_error: message
func parseExpectation(scriptContent string) (*Expectation, error) {
	scanner := bufio.NewScanner(strings.NewReader(scriptContent))
	for scanner.Scan() {
		matches := expectRegex.FindStringSubmatch(scanner.Text())
		if len(matches) != 3 {
			continue
		}
		resultType := ""
		switch matches[1] {
		case "expect":
			resultType = "value"
		case "expect_runtime_error":
			resultType = "runtime_error"
		case "expect_syntax_error":
			resultType = "syntax_error"
		default:
			return nil, fmt.Errorf("unknown expectation type: %s", matches[1])
		}
		return &Expectation{ResultType: resultType, Value: strings.TrimSpace(matches[2])}, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script content: %w", err)
	}
	return nil, fmt.Errorf("no expectation comment found (e.g., // expect: value)")
}

func TestScripts(t *testing.T) {
	scriptDir := filepath.Join("testdata", "scripts")
	files, err := os.ReadDir(scriptDir)
	if err != nil {
		t.Fatalf("Failed to read script directory %q: %v", scriptDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".js") {
			continue
		}
		scriptPath := filepath.Join(scriptDir, file.Name())
		t.Run(file.Name(), func(t *testing.T) {
			content, err := os.ReadFile(scriptPath)
			if err != nil {
				t.Fatalf("Failed to read script file %q: %v", scriptPath, err)
			}
			expectation, err := parseExpectation(string(content))
			if err != nil {
				t.Fatalf("Failed to parse expectation in %q: %v", scriptPath, err)
			}

			var stdout, stderr bytes.Buffer
			s, err := NewSession(context.Background(), WithOutput(&stdout, &stderr), WithBaseDir(scriptDir))
			if err != nil {
				t.Fatalf("NewSession: %v", err)
			}
			value, errs := s.RunFile(context.Background(), scriptPath)
			if scriptsDebug {
				t.Logf("value=%s errs=%v stdout=%q", value.Inspect(), errs, stdout.String())
			}

			var kinds []string
			var messages strings.Builder
			for _, e := range errs {
				kinds = append(kinds, e.Kind())
				messages.WriteString(e.Error() + "\n")
			}

			switch expectation.ResultType {
			case "value":
				if len(errs) > 0 {
					t.Fatalf("Expected value %q, but got errors:\n%s", expectation.Value, messages.String())
				}
				if got := value.Inspect(); got != expectation.Value {
					t.Errorf("Expected value %q, got %q", expectation.Value, got)
				}
			case "runtime_error", "syntax_error":
				wantKind := "Runtime"
				if expectation.ResultType == "syntax_error" {
					wantKind = "Syntax"
				}
				found := false
				for _, e := range errs {
					if e.Kind() == wantKind && strings.Contains(e.Error(), expectation.Value) {
						found = true
					}
				}
				if !found {
					t.Errorf("Expected %s error containing %q, got kinds %v:\n%s (value %s)",
						wantKind, expectation.Value, kinds, messages.String(), value.Inspect())
				}
			}
		})
	}
}

func TestParseExpectation(t *testing.T) {
	tests := []struct {
		input    string
		wantType string
		wantVal  string
		wantErr  bool
	}{
		{"1;\n// expect: 1", "value", "1", false},
		{"//expect_runtime_error:   TypeError  ", "runtime_error", "TypeError", false},
		{"// expect_syntax_error: Unexpected", "syntax_error", "Unexpected", false},
		{"let x = 1;", "", "", true},
	}
	for _, tt := range tests {
		exp, err := parseExpectation(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseExpectation(%q): expected error, got %+v", tt.input, exp)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseExpectation(%q): unexpected error %v", tt.input, err)
			continue
		}
		if exp.ResultType != tt.wantType || exp.Value != tt.wantVal {
			t.Errorf("parseExpectation(%q): expected %s/%q, got %s/%q", tt.input, tt.wantType, tt.wantVal, exp.ResultType, exp.Value)
		}
	}
}
