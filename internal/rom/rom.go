package rom

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnreadable wraps any failure to read a ROM from storage.
var ErrUnreadable = errors.New("rom unreadable")

// Extensions are the file extensions associated with CHIP-8 programs, lower case without dot.
var Extensions = []string{"ch8", "chip8"}

// Info describes a loaded image (for logs and the UI title).
type Info struct {
	Name  string // file name without extension
	Size  int    // bytes
	Words int    // 16-bit instruction words, a trailing odd byte counts as one
	CRC32 uint32 // IEEE
}

func (i Info) String() string {
	return fmt.Sprintf("%q size=%dB words=%d crc32=%08x", i.Name, i.Size, i.Words, i.CRC32)
}

// Load reads a ROM image. The size is not checked here; memory rejects oversized images.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return data, nil
}

// AssociatesWithExtension reports whether ext (".ch8", "CHIP8", ...) names a CHIP-8 program.
func AssociatesWithExtension(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// IsROMPath reports whether path carries a CHIP-8 extension.
func IsROMPath(path string) bool {
	return AssociatesWithExtension(filepath.Ext(path))
}

// Find lists the ROM files directly inside dir, sorted by name.
func Find(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsROMPath(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Identify summarises a ROM image. name may be a path; its directory and extension are dropped.
func Identify(name string, data []byte) Info {
	base := filepath.Base(name)
	if name == "" {
		base = ""
	}
	return Info{
		Name:  strings.TrimSuffix(base, filepath.Ext(base)),
		Size:  len(data),
		Words: (len(data) + 1) / 2,
		CRC32: crc32.ChecksumIEEE(data),
	}
}

// StatePath returns the save-state file for a ROM and slot, next to the ROM
// or inside stateDir when it is set.
func StatePath(romPath, stateDir string, slot int) string {
	base := "chip8"
	dir := stateDir
	if romPath != "" {
		base = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
		if dir == "" {
			dir = filepath.Dir(romPath)
		}
	}
	return filepath.Join(dir, fmt.Sprintf("%s.slot%d.c8st", base, slot))
}
