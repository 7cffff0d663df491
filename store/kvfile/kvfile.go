/*
Package kvfile mirrors drawer state to a device-local JSON blob.

PURPOSE:
  POS devices persist the till into a namespaced key-value cache as
  one JSON blob:

    {"cashDrawer": [...DrawerLine], "cashTransactions": [...CashEvent]}

  with timestamps as ISO-8601 strings. This package keeps that format
  alive as a best-effort mirror next to the primary store, so a device
  that only understands the blob shape can still read the till.

GUARANTEES:
  - Atomic replace: written to a temp file, then renamed.
  - Best-effort: callers treat a failed write as a warning, never as a
    reason to roll back the in-memory or primary-store state.

SEE ALSO:
  - till/service.go: Writes the mirror after each committed mutation
*/
package kvfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/warp/till-engine/cash"
)

// blob is the on-disk shape. CashEvent timestamps marshal to RFC 3339
// via encoding/json's time.Time handling.
type blob struct {
	CashDrawer       []cash.DrawerLine `json:"cashDrawer"`
	CashTransactions []cash.CashEvent  `json:"cashTransactions"`
}

// Cache writes the drawer+ledger blob to a single file.
type Cache struct {
	path string
}

func New(path string) *Cache {
	return &Cache{path: path}
}

// Write replaces the blob atomically (temp file + rename).
func (c *Cache) Write(_ context.Context, lines []cash.DrawerLine, events []cash.CashEvent) error {
	data, err := json.MarshalIndent(blob{CashDrawer: lines, CashTransactions: events}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".till-cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// Load reads the blob back. A missing file is not an error: both
// return slices are nil.
func (c *Cache) Load(_ context.Context) ([]cash.DrawerLine, []cash.CashEvent, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, nil, err
	}
	return b.CashDrawer, b.CashTransactions, nil
}
