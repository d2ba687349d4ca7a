// This file keeps crush's local state (attachment cache, tree state, logs)
// out of git.
package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreHeader precedes the patterns crush appends.
const gitignoreHeader = "# crush local cache and state"

// EnsureGitignored ensures pattern (a directory such as ".crush/") is listed
// in projectDir's .gitignore. It is idempotent: the file is created when
// missing, existing content is preserved, and nothing is written when an
// equivalent pattern (dir, dir/, dir/*, dir/**) is already present.
func EnsureGitignored(projectDir, pattern string) error {
	if projectDir == "" {
		var err error
		projectDir, err = os.Getwd()
		if err != nil {
			return err
		}
	}

	gitignorePath := filepath.Join(projectDir, ".gitignore")

	alreadyPresent, err := isGitignored(gitignorePath, pattern)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if alreadyPresent {
		return nil
	}

	return appendToGitignore(gitignorePath, strings.TrimSuffix(pattern, "/")+"/")
}

// isGitignored checks if pattern is already covered by the .gitignore file.
func isGitignored(path, pattern string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if matchesDirPattern(line, pattern) {
			return true, nil
		}
	}

	return false, scanner.Err()
}

// matchesDirPattern checks if a gitignore line covers the directory dir.
func matchesDirPattern(line, dir string) bool {
	normalized := strings.TrimPrefix(line, "/")
	dir = strings.TrimSuffix(strings.TrimPrefix(dir, "/"), "/")

	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if normalized == dir+suffix {
			return true
		}
	}
	return false
}

// appendToGitignore appends a pattern to the .gitignore file, creating it if
// needed and keeping a blank line between existing content and the new block.
func appendToGitignore(path string, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	var toWrite string
	if len(content) == 0 {
		toWrite = gitignoreHeader + "\n" + pattern + "\n"
	} else {
		if content[len(content)-1] != '\n' {
			toWrite = "\n"
		}
		toWrite += "\n" + gitignoreHeader + "\n" + pattern + "\n"
	}

	_, err = file.WriteString(toWrite)
	return err
}
