package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestKeys(t *testing.T) {
	if got := TitleKey(2020, 5); got != "2020_5" {
		t.Errorf("TitleKey(2020, 5) = %q, want 2020_5", got)
	}
	if got := MaxDayKey(2025); got != "2025_max_day" {
		t.Errorf("MaxDayKey(2025) = %q, want 2025_max_day", got)
	}
}

func TestDir_SetThenGet(t *testing.T) {
	d, err := NewDir(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}

	if err := d.Set("2020_5", "Binary Boarding"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := d.Get("2020_5")
	if err != nil || !ok {
		t.Fatalf("Get() = %q, %v, %v; want hit", got, ok, err)
	}
	if got != "Binary Boarding" {
		t.Errorf("Get() = %q, want Binary Boarding", got)
	}

	// The on-disk format is the bare title.
	raw, err := os.ReadFile(filepath.Join(d.Root(), "2020_5.txt"))
	if err != nil {
		t.Fatalf("read entry file: %v", err)
	}
	if string(raw) != "Binary Boarding" {
		t.Errorf("entry file = %q, want bare title", raw)
	}
}

func TestDir_Miss(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	_, ok, err := d.Get("2015_1")
	if err != nil || ok {
		t.Fatalf("Get() on empty dir: ok=%v err=%v, want miss without error", ok, err)
	}
}

func TestDir_WhitespaceAndEmpty(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	writeEntry(t, root, "2016_1", "  No Time for a Taxicab\n")
	writeEntry(t, root, "2016_2", " \n\t")

	got, ok, err := d.Get("2016_1")
	if err != nil || !ok || got != "No Time for a Taxicab" {
		t.Errorf("Get(2016_1) = %q, %v, %v; want trimmed hit", got, ok, err)
	}
	if _, ok, err := d.Get("2016_2"); ok || err != nil {
		t.Errorf("Get(2016_2) blank entry: ok=%v err=%v, want miss", ok, err)
	}
}

func TestDir_CorruptEntry(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	writeEntry(t, root, "2017_3", "\xff\xfe\xfd")

	_, ok, err := d.Get("2017_3")
	if ok {
		t.Error("Get() on corrupt entry reported a hit")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}
}

func TestDir_UnreadableEntry(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	// A directory where the entry file should be cannot be read as a file.
	if err := os.Mkdir(filepath.Join(root, "2018_4.txt"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok, err := d.Get("2018_4"); ok || err == nil {
		t.Errorf("Get() on unreadable entry: ok=%v err=%v, want error", ok, err)
	}
}

func TestDir_InvalidKeys(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	for _, key := range []string{"", "..", "../escape", `a\b`} {
		if err := d.Set(key, "x"); err == nil {
			t.Errorf("Set(%q) accepted an invalid key", key)
		}
		if _, _, err := d.Get(key); err == nil {
			t.Errorf("Get(%q) accepted an invalid key", key)
		}
	}
}

func TestDir_SetOverwritesAtomically(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	if err := d.Set("2019_1", "first"); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("2019_1", "second"); err != nil {
		t.Fatal(err)
	}
	got, _, _ := d.Get("2019_1")
	if got != "second" {
		t.Errorf("Get() = %q, want second", got)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir holds %d files, want 1 (temp files must not linger)", len(entries))
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"2015_1": "Not Quite Lisp", "2015_2": ""})

	if v, ok, _ := m.Get("2015_1"); !ok || v != "Not Quite Lisp" {
		t.Errorf("Get(seeded) = %q, %v", v, ok)
	}
	if _, ok, _ := m.Get("2015_2"); ok {
		t.Error("Get(empty seeded value) reported a hit")
	}
	if err := m.Set("2015_3", "Perfectly Spherical Houses in a Vacuum"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := m.Get("2015_3"); !ok || v != "Perfectly Spherical Houses in a Vacuum" {
		t.Errorf("Get(after Set) = %q, %v", v, ok)
	}
	if m.Sets() != 1 {
		t.Errorf("Sets() = %d, want 1", m.Sets())
	}
}

func writeEntry(t *testing.T, root, key, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, key+entryExt), []byte(content), 0o644); err != nil {
		t.Fatalf("write entry: %v", err)
	}
}

func TestDir_SetInvalidUTF8ReadsBack(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set("2020_1", "Caf\xe9 Night"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := d.Get("2020_1")
	if err != nil || !ok {
		t.Fatalf("Get() = %q, %v, %v; want hit", got, ok, err)
	}
	if got != "Caf\uFFFD Night" {
		t.Errorf("Get() = %q, want invalid byte replaced", got)
	}
}

