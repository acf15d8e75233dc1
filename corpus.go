package respondsdk

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ──────────────────────────────────────────────
// Corpus sources
// ──────────────────────────────────────────────

// StyleCorpusSource supplies the ordered sample texts for style learning.
// Persistence mechanics are the implementation's concern.
type StyleCorpusSource interface {
	LoadSamples() ([]string, error)
}

// FileCorpusSource reads one sample per line from a text file.
// Blank lines and lines starting with '#' are skipped.
type FileCorpusSource struct {
	Path string
}

// LoadSamples reads the corpus file.
func (f FileCorpusSource) LoadSamples() ([]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	var samples []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		samples = append(samples, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return samples, nil
}

// SliceCorpusSource serves an in-memory corpus. Useful in tests and when
// the transport collaborator collects samples itself.
type SliceCorpusSource []string

// LoadSamples returns a copy of the slice.
func (s SliceCorpusSource) LoadSamples() ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}
