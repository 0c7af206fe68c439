// Package curriculum loads subject lists from files.
package curriculum

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/pacer/internal/model"
)

// Default returns the built-in curriculum.
func Default() []model.Subject {
	return []model.Subject{
		{Name: "Medicine", TotalChapters: 20},
		{Name: "Obs", TotalChapters: 40},
		{Name: "Gyn", TotalChapters: 42},
		{Name: "Ortho", TotalChapters: 25},
		{Name: "Peads", TotalChapters: 30},
		{Name: "Ophtha", TotalChapters: 22},
		{Name: "Ent", TotalChapters: 95},
	}
}

// Load reads one subject per line in the form "Name, chapters".
// Blank lines and lines starting with '#' are skipped.
func Load(path string) ([]model.Subject, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only curriculum file.
			_ = cerr
		}
	}()

	var subjects []model.Subject
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		subj, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		subjects = append(subjects, subj)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("curriculum is empty")
	}
	return subjects, nil
}

// ParseLine parses "Name, chapters". The name may itself contain commas.
func ParseLine(line string) (model.Subject, error) {
	idx := strings.LastIndex(line, ",")
	if idx < 0 {
		return model.Subject{}, fmt.Errorf("expected \"name, chapters\", got %q", line)
	}
	name := strings.TrimSpace(line[:idx])
	if name == "" {
		return model.Subject{}, fmt.Errorf("subject name is empty")
	}
	chapters, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil {
		return model.Subject{}, fmt.Errorf("invalid chapter count for %s: %w", name, err)
	}
	if chapters <= 0 {
		return model.Subject{}, fmt.Errorf("chapter count for %s must be > 0", name)
	}
	return model.Subject{Name: name, TotalChapters: chapters}, nil
}
