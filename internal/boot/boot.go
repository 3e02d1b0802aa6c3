// Package boot implements spec.md §6.3's boot image: a gzip-compressed
// blob of mezzanine (bootstrap-written-in-itself) source text an
// interpreter loads once at startup, plus a content-addressed cache so
// re-booting the same image skips recompression. The image carries only
// that source text; symbol names, datatype specs, and error message
// templates are not stored in it.
//
// Grounded on sentra/internal/module/module.go's ModuleLoader (cache map
// keyed by resolved path, builtin-module fallback) for the cache-then-load
// shape, and sentra/internal/database/db_manager.go for the
// modernc.org/sqlite wiring pattern it already uses for its own local
// persistence.
package boot

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
	_ "modernc.org/sqlite"

	"github.com/wyrd-lang/wyrd/internal/eval"
)

// Image is the decompressed boot payload: everything needed to stand up
// an Interp's initial symbol table and library module.
type Image struct {
	Source    []byte // the mezzanine source text (wyrd code defining library words)
	BuiltAt   string // human-readable build timestamp (strftime-formatted)
	Digest    string // sha256 of Source, hex-encoded — the cache key

	RawSize        string // humanize.Bytes(len(Source)) — for boot-log/diagnostic output
	CompressedSize string // humanize.Bytes(len(compressed))
}

// Build compresses source into a gzip blob and stamps it with the current
// time, formatted the way sentra's reporting layer formats timestamps
// (ncruces/go-strftime, not time.Format's reference-date layout).
func Build(source []byte, now time.Time) (*Image, []byte, error) {
	sum := sha256.Sum256(source)
	img := &Image{
		Source:  source,
		BuiltAt: strftime.Format("%Y-%m-%d %H:%M:%S UTC", now.UTC()),
		Digest:  hex.EncodeToString(sum[:]),
		RawSize: humanize.Bytes(uint64(len(source))),
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(source); err != nil {
		return nil, nil, fmt.Errorf("boot: compress image: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, nil, fmt.Errorf("boot: close compressor: %w", err)
	}
	img.CompressedSize = humanize.Bytes(uint64(buf.Len()))
	return img, buf.Bytes(), nil
}

// Describe renders a one-line human-readable summary of img, the kind of
// line a boot-time diagnostic log would print.
func (img *Image) Describe() string {
	return fmt.Sprintf("boot image %s built %s (%s -> %s compressed)",
		img.Digest[:12], img.BuiltAt, img.RawSize, img.CompressedSize)
}

// Load decompresses a gzip blob back into source text.
func Load(compressed []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("boot: open compressed image: %w", err)
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// Cache is a content-addressed store of compressed boot images backed by
// a local sqlite database, so repeated process starts against the same
// mezzanine source skip recompression entirely.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenCache opens (creating if needed) a sqlite-backed cache at path. An
// empty path opens an in-memory database — useful for tests and for
// embedders who don't want boot-image caching to touch disk.
func OpenCache(path string) (*Cache, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("boot: open cache: %w", err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS boot_images (
		digest TEXT PRIMARY KEY,
		built_at TEXT NOT NULL,
		compressed BLOB NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("boot: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Store persists a built image's compressed form keyed by its digest.
func (c *Cache) Store(img *Image, compressed []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO boot_images (digest, built_at, compressed) VALUES (?, ?, ?)`,
		img.Digest, img.BuiltAt, compressed,
	)
	return err
}

// Fetch returns the compressed blob and recorded build time for digest,
// or ok=false if the cache has nothing for it.
func (c *Cache) Fetch(digest string) (compressed []byte, builtAt string, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row := c.db.QueryRow(`SELECT built_at, compressed FROM boot_images WHERE digest = ?`, digest)
	err = row.Scan(&builtAt, &compressed)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	return compressed, builtAt, true, nil
}

// BootInterp builds a fresh *eval.Interp and registers the native library
// (internal/eval.RegisterNatives) into it. mezzanine, if non-nil, is run
// against the interpreter afterward to layer any bootstrap-level library
// words on top of the natives — spec.md §6.3 describes these as blocks
// read from the boot image's decompressed text, but the scanner/loader
// that would turn source text into cells is explicitly out of scope
// (spec.md §1), so mezzanine content here is built directly in Go against
// the eval package rather than parsed from Source.
func BootInterp(mezzanine func(*eval.Interp) error) (*eval.Interp, error) {
	in := eval.NewInterp()
	eval.RegisterNatives(in.Syms, in.Lib)
	if mezzanine == nil {
		return in, nil
	}
	if err := mezzanine(in); err != nil {
		return nil, fmt.Errorf("boot: run mezzanine: %w", err)
	}
	return in, nil
}
