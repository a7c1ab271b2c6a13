package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/declmig/declmig/schema"
)

// Kind tags a migration file; the tag doubles as the filename extension.
type Kind string

const (
	KindDiff     Kind = "yaml" // structural diff, ordered action list
	KindSQL      Kind = "sql"
	KindFunction Kind = "fn"
	KindTrigger  Kind = "trg"
	KindPolicy   Kind = "pol"
	KindView     Kind = "view"
)

const (
	forwardMarker  = "-- FORWARD"
	backwardMarker = "-- BACKWARD"
)

// File is one migration file on disk. Numbers are strictly increasing and
// globally unique across every kind.
type File struct {
	Number   int
	Name     string
	Kind     Kind
	Filename string
	Path     string
}

var filenamePattern = regexp.MustCompile(`^(\d{4})_(.+)\.(yaml|sql|fn|trg|pol|view)$`)

// DuplicateNumberError reports every duplicated migration number and the
// files involved. Any collision blocks listing and generation entirely.
type DuplicateNumberError struct {
	Duplicates map[int][]string
}

func (e *DuplicateNumberError) Error() string {
	numbers := make([]int, 0, len(e.Duplicates))
	for n := range e.Duplicates {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var parts []string
	for _, n := range numbers {
		parts = append(parts, fmt.Sprintf("%d (%s)", n, strings.Join(e.Duplicates[n], ", ")))
	}
	return "duplicate migration numbers: " + strings.Join(parts, "; ")
}

// List returns every migration file under dir sorted by number, validating
// global number uniqueness. Files that do not match the migration naming
// convention are ignored.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations dir: %v", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := filenamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parsing migration number in %s: %v", e.Name(), err)
		}
		files = append(files, File{
			Number:   number,
			Name:     m[2],
			Kind:     Kind(m[3]),
			Filename: e.Name(),
			Path:     filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Number < files[j].Number })

	byNumber := map[int][]string{}
	for _, f := range files {
		byNumber[f.Number] = append(byNumber[f.Number], f.Filename)
	}
	duplicates := map[int][]string{}
	for n, names := range byNumber {
		if len(names) > 1 {
			duplicates[n] = names
		}
	}
	if len(duplicates) > 0 {
		return nil, &DuplicateNumberError{Duplicates: duplicates}
	}

	return files, nil
}

// NextNumber is one more than the current maximum across all existing
// files of every kind.
func NextNumber(files []File) int {
	max := 0
	for _, f := range files {
		if f.Number > max {
			max = f.Number
		}
	}
	return max + 1
}

// Filename encodes <4-digit number>_<name>.<kind extension>.
func Filename(number int, name string, kind Kind) string {
	return fmt.Sprintf("%04d_%s.%s", number, name, kind)
}

type diffPayload struct {
	Actions []schema.Action `yaml:"actions"`
}

// WriteDiff persists an ordered action list as the next structural-diff
// migration. Migration files are created once and must not be hand-edited
// afterward.
func WriteDiff(dir string, number int, name string, actions []schema.Action) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(diffPayload{Actions: actions})
	if err != nil {
		return "", fmt.Errorf("marshalling actions: %v", err)
	}

	filename := Filename(number, name, KindDiff)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("writing migration file: %v", err)
	}
	return filename, nil
}

// ReadDiff loads the ordered action list of a structural-diff migration.
func ReadDiff(path string) ([]schema.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading migration %s: %v", path, err)
	}
	var payload diffPayload
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshalling migration %s: %v", path, err)
	}
	return payload.Actions, nil
}

// WriteScript persists a forward/backward script pair as one migration
// file of the given kind.
func WriteScript(dir string, number int, name string, kind Kind, forward, backward string) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}

	content := forwardMarker + "\n" + strings.TrimSpace(forward) + "\n\n" +
		backwardMarker + "\n" + strings.TrimSpace(backward) + "\n"

	filename := Filename(number, name, kind)
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing migration file: %v", err)
	}
	return filename, nil
}

// SplitScript separates a script file's forward and backward sections.
func SplitScript(content string) (forward, backward string, err error) {
	fwdIdx := strings.Index(content, forwardMarker)
	bwdIdx := strings.Index(content, backwardMarker)
	if fwdIdx < 0 || bwdIdx < 0 || bwdIdx < fwdIdx {
		return "", "", fmt.Errorf("script is missing %s/%s markers", forwardMarker, backwardMarker)
	}
	forward = strings.TrimSpace(content[fwdIdx+len(forwardMarker) : bwdIdx])
	backward = strings.TrimSpace(content[bwdIdx+len(backwardMarker):])
	return forward, backward, nil
}

// ReadScript loads and splits a script-kind migration file.
func ReadScript(path string) (forward, backward string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading migration %s: %v", path, err)
	}
	forward, backward, err = SplitScript(string(data))
	if err != nil {
		return "", "", fmt.Errorf("migration %s: %v", path, err)
	}
	return forward, backward, nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating migrations folder: %v", err)
		}
	}
	return nil
}
