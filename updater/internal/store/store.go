package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/puzzletitles/puzzletitles/updater/internal/atomicfile"
)

// ErrCorrupt is returned by Load when the file exists but is not a valid
// year → day → title document.
var ErrCorrupt = errors.New("store: corrupt file")

const indent = "  "

// Puzzles maps year to day to title, all keys being decimal strings.
// The zero value is an empty, writable-after-New store; use New or Load.
type Puzzles map[string]map[string]string

// New returns an empty store.
func New() Puzzles {
	return make(Puzzles)
}

// Load reads the store at path. A missing file yields an empty store.
// A file that cannot be decoded yields ErrCorrupt and is left untouched.
func Load(path string) (Puzzles, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}

	var p Puzzles
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if p == nil {
		p = New()
	}
	return p, nil
}

// Title returns the recorded title for (year, day), or "".
func (p Puzzles) Title(year, day int) string {
	return p[yearKey(year)][dayKey(day)]
}

// Has reports whether (year, day) has a non-blank title.
func (p Puzzles) Has(year, day int) bool {
	return strings.TrimSpace(p.Title(year, day)) != ""
}

// EnsureYear creates an empty object for year if none exists.
func (p Puzzles) EnsureYear(year int) {
	k := yearKey(year)
	if p[k] == nil {
		p[k] = make(map[string]string)
	}
}

// Record stores title for (year, day) unless a title is already present.
// It reports whether the store changed. Blank titles are ignored. Invalid
// UTF-8 is replaced with U+FFFD so the title survives a save and reload.
func (p Puzzles) Record(year, day int, title string) bool {
	title = strings.ToValidUTF8(title, "\uFFFD")
	if strings.TrimSpace(title) == "" || p.Has(year, day) {
		return false
	}
	p.EnsureYear(year)
	p[yearKey(year)][dayKey(day)] = title
	return true
}

// Count returns the number of non-blank titles recorded for year.
func (p Puzzles) Count(year int) int {
	n := 0
	for _, t := range p[yearKey(year)] {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	return n
}

// Marshal encodes the store with two-space indentation, keys in canonical
// order (see lessKey) and a trailing newline.
func (p Puzzles) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	years := sortedKeys(p)
	if len(years) == 0 {
		return []byte("{}\n"), nil
	}

	buf.WriteString("{\n")
	for i, y := range years {
		buf.WriteString(indent)
		if err := writeString(&buf, y); err != nil {
			return nil, err
		}
		buf.WriteString(": ")

		days := p[y]
		if len(days) == 0 {
			buf.WriteString("{}")
		} else {
			buf.WriteString("{\n")
			keys := sortedKeys(days)
			for j, d := range keys {
				buf.WriteString(indent + indent)
				if err := writeString(&buf, d); err != nil {
					return nil, err
				}
				buf.WriteString(": ")
				if err := writeString(&buf, days[d]); err != nil {
					return nil, err
				}
				if j < len(keys)-1 {
					buf.WriteByte(',')
				}
				buf.WriteByte('\n')
			}
			buf.WriteString(indent + "}")
		}

		if i < len(years)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Save writes the store to path, replacing any previous file. The document
// is written to a temp file in the same directory and renamed into place,
// so a crash never leaves a truncated store behind.
func (p Puzzles) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	var sb bytes.Buffer
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("store: encode %q: %w", s, err)
	}
	buf.Write(bytes.TrimSuffix(sb.Bytes(), []byte("\n")))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

// lessKey orders all-digit keys first, by numeric value with a lexical
// tie-break ("02" before "2"), then every other key lexically.
func lessKey(a, b string) bool {
	an, bn := isDigits(a), isDigits(b)
	switch {
	case an && bn:
		if c := compareDigits(a, b); c != 0 {
			return c < 0
		}
		return a < b
	case an != bn:
		return an
	default:
		return a < b
	}
}

// compareDigits compares two decimal strings by value without overflow.
func compareDigits(a, b string) int {
	a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func yearKey(year int) string { return strconv.Itoa(year) }
func dayKey(day int) string   { return strconv.Itoa(day) }
