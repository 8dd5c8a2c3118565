// Package store loads and saves the on-disk database of a reaction family.
//
// Each family lives in its own directory under the database root:
//
//	<root>/<family>/groups.yaml      group tree with fitted distances
//	<root>/<family>/training.yaml    training reactions (the depository)
//	<root>/<family>/dictionary.yaml  species dictionary
//
// The training and dictionary files are optional.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sanonone/tsgroups/pkg/depository"
	"github.com/sanonone/tsgroups/pkg/groups"
	"github.com/sanonone/tsgroups/pkg/reaction"
)

// File names inside a family directory.
const (
	TreeFile       = "groups.yaml"
	DepositoryFile = "training.yaml"
	DictionaryFile = "dictionary.yaml"
	SnapshotFile   = "groups.snap"
	JournalFile    = "runs.journal"
)

// Database is the loaded state of one family. It is a plain handle: the
// caller passes it explicitly and decides when to save.
type Database struct {
	root   string
	family string

	tree *groups.Tree
	dep  *depository.Depository
	dict *depository.Dictionary
}

// Open loads the family found under root.
func Open(root, family string) (*Database, error) {
	db := &Database{root: root, family: family}

	dict, err := LoadDictionary(db.Path(DictionaryFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		dict = &depository.Dictionary{}
	case err != nil:
		return nil, err
	}
	db.dict = dict

	dep, err := LoadDepository(db.Path(DepositoryFile), dict)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		dep = &depository.Depository{}
	case err != nil:
		return nil, err
	}
	db.dep = dep

	tree, err := LoadTree(db.Path(TreeFile), nil)
	if err != nil {
		return nil, fmt.Errorf("family %s: %w", family, err)
	}
	db.tree = tree

	slog.Info("[Store] Opened family", "family", family, "groups", tree.Len(),
		"reactions", len(dep.Entries), "species", len(dict.Species))
	return db, nil
}

// Family returns the family name.
func (db *Database) Family() string { return db.family }

// Path returns the location of name inside the family directory.
func (db *Database) Path(name string) string {
	return filepath.Join(db.root, db.family, name)
}

// Tree returns the group tree.
func (db *Database) Tree() *groups.Tree { return db.tree }

// Depository returns the training reactions.
func (db *Database) Depository() *depository.Depository { return db.dep }

// Dictionary returns the species dictionary.
func (db *Database) Dictionary() *depository.Dictionary { return db.dict }

// Samples returns the training samples of the depository.
func (db *Database) Samples() []reaction.Sample { return db.dep.Samples() }

// SaveTree writes the group tree back to groups.yaml.
func (db *Database) SaveTree() error {
	return SaveTree(db.Path(TreeFile), db.family, db.tree)
}

// SaveTraining writes the depository and the dictionary.
func (db *Database) SaveTraining() error {
	if err := os.MkdirAll(filepath.Join(db.root, db.family), 0o755); err != nil {
		return err
	}
	if err := SaveDictionary(db.Path(DictionaryFile), db.dict); err != nil {
		return err
	}
	return SaveDepository(db.Path(DepositoryFile), db.dep)
}
