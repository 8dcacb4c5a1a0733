package repository

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// urlsTemplate is written on first run so the file explains itself.
const urlsTemplate = `# Put one product URL per line. Lines starting with # are ignored.
# Example:
# https://www.fnac.com/a1234567/some-product
# https://www.cdiscount.com/some/product/page.html
`

// URLRepository manages the plain-text list of tracked product URLs:
// one URL per line, blank lines and # comments skipped.
type URLRepository struct {
	path string
}

// NewURLRepository creates a repository over the given file path.
func NewURLRepository(path string) *URLRepository {
	return &URLRepository{path: path}
}

// Path returns the location of the URL list file.
func (r *URLRepository) Path() string {
	return r.path
}

// EnsureFile scaffolds the URL list on first run. When prompt is true
// and the file had to be created, the user is asked for a first URL to
// append; an empty answer leaves the template as is.
func (r *URLRepository) EnsureFile(prompt bool, in io.Reader, out io.Writer) error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat urls file: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create urls directory: %w", err)
		}
	}
	if err := os.WriteFile(r.path, []byte(urlsTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to create urls file: %w", err)
	}
	fmt.Fprintf(out, "🆕 Created %s\n", r.path)

	if !prompt {
		return nil
	}

	fmt.Fprint(out, "➕ Add a first product URL now (or leave empty): ")
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		if first := strings.TrimSpace(scanner.Text()); first != "" {
			if err := r.Add(first); err != nil {
				return err
			}
			fmt.Fprintln(out, "✅ URL added.")
		}
	}
	return nil
}

// List returns the tracked URLs in file order.
func (r *URLRepository) List() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read urls file: %w", err)
	}
	return urls, nil
}

// Add appends one URL to the list, creating the file if needed.
func (r *URLRepository) Add(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("url must not be empty")
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open urls file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("failed to append url: %w", err)
	}
	return nil
}
