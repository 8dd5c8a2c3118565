package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sanonone/tsgroups/pkg/groups"
)

// EntrySnapshot is the persisted fitted state of one group.
type EntrySnapshot struct {
	Label         string
	Index         int
	Distances     map[string]float64
	Uncertainties map[string]float64
	Method        string
	ShortDesc     string
	LongDesc      string
}

// Entries captures the fitted state of every node of the tree in
// depth-first order.
func Entries(tree *groups.Tree) []EntrySnapshot {
	var out []EntrySnapshot
	_ = tree.Walk(func(n *groups.Node) error {
		out = append(out, EntrySnapshot{
			Label:         n.Label,
			Index:         n.Index,
			Distances:     n.Data.Distances,
			Uncertainties: n.Data.Uncertainties,
			Method:        n.Data.Method,
			ShortDesc:     n.ShortDesc,
			LongDesc:      n.LongDesc,
		})
		return nil
	})
	return out
}

// WriteSnapshot encodes the tree's entries as a single snapshot frame.
func WriteSnapshot(w io.Writer, tree *groups.Tree) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(Entries(tree)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return NewFrameWriter(w).WriteFrame(KindSnapshot, buf.Bytes())
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]EntrySnapshot, error) {
	kind, payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	if kind != KindSnapshot {
		return nil, fmt.Errorf("%w: %#x", ErrUnexpectedKind, kind)
	}
	var entries []EntrySnapshot
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return entries, nil
}

// ApplySnapshot restores entries onto the nodes with matching labels and
// returns the labels that no longer exist in the tree.
func ApplySnapshot(tree *groups.Tree, entries []EntrySnapshot) []string {
	var missing []string
	for _, e := range entries {
		n, ok := tree.Lookup(e.Label)
		if !ok {
			missing = append(missing, e.Label)
			continue
		}
		n.Index = e.Index
		n.Data.Distances = e.Distances
		n.Data.Uncertainties = e.Uncertainties
		n.Data.Method = e.Method
		n.ShortDesc = e.ShortDesc
		n.LongDesc = e.LongDesc
	}
	return missing
}

// SaveSnapshotFile writes the snapshot to a temporary file next to path and
// renames it into place.
func SaveSnapshotFile(path string, tree *groups.Tree) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteSnapshot(tmp, tree); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// LoadSnapshotFile reads a snapshot file.
func LoadSnapshotFile(path string) ([]EntrySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
