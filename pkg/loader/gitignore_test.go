package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMatchesDirPattern(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		// Should match
		{".crush", true},
		{".crush/", true},
		{".crush/*", true},
		{".crush/**", true},
		{".crush/**/*", true},
		{"/.crush", true}, // Leading slash should be normalized
		{"/.crush/", true},

		// Should not match
		{"", false},
		{"#.crush", false},
		{".crush2", false},
		{"crush/", false},
		{".crush/cache", false},
		{"*.crush", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := matchesDirPattern(tt.line, ".crush/"); got != tt.matches {
				t.Errorf("matchesDirPattern(%q) = %v, want %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestIsGitignored(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{"empty file", "", false},
		{"has dir", "node_modules/\n.crush\n*.log\n", true},
		{"has dir slash", ".crush/\n", true},
		{"commented out", "# .crush/\n", false},
		{"different pattern", ".cache/\nnode_modules/\n", false},
		{"with whitespace", "  .crush/  \n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gitignorePath := filepath.Join(t.TempDir(), ".gitignore")
			if err := os.WriteFile(gitignorePath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test file: %v", err)
			}

			got, err := isGitignored(gitignorePath, ".crush")
			if err != nil {
				t.Fatalf("isGitignored() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("isGitignored() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsGitignored_FileNotExists(t *testing.T) {
	_, err := isGitignored(filepath.Join(t.TempDir(), ".gitignore"), ".crush")
	if !os.IsNotExist(err) {
		t.Errorf("expected IsNotExist error, got %v", err)
	}
}

func TestEnsureGitignored(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{"creates file", nil, gitignoreHeader + "\n.crush/\n"},
		{"appends with separator", strPtr("node_modules/\n"), "node_modules/\n\n" + gitignoreHeader + "\n.crush/\n"},
		{"adds missing newline", strPtr("node_modules/"), "node_modules/\n\n" + gitignoreHeader + "\n.crush/\n"},
		{"already present", strPtr(".crush/*\n"), ".crush/*\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0644); err != nil {
					t.Fatal(err)
				}
			}

			if err := EnsureGitignored(dir, ".crush/"); err != nil {
				t.Fatalf("EnsureGitignored() error = %v", err)
			}
			// Second call must not duplicate the entry.
			if err := EnsureGitignored(dir, ".crush"); err != nil {
				t.Fatalf("EnsureGitignored() second call error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("content = %q, want %q", data, tt.want)
			}
			if strings.Count(string(data), gitignoreHeader) > 1 {
				t.Error("header written twice")
			}
		})
	}
}

func strPtr(s string) *string { return &s }
