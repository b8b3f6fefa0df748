package state

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zxhio/delaysim/internal/errcode"
)

const (
	minBridgeID = 10
	maxBridgeID = 100000
)

// State maps an interface name to the id of the bridge it belongs to.
type State map[string]int

func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return nil, errors.Wrap(err, "os.ReadFile")
	}

	s := State{}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errcode.New(errcode.CodeMalformed, "state file %s: %v", path, err)
	}
	// A literal null decodes to a nil map.
	if s == nil {
		s = State{}
	}
	return s, nil
}

// Save replaces path through a rename. Concurrent writers are not guarded.
func Save(path string, s State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "os.CreateTemp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write state")
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod state")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close state")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "os.Rename")
}

// GroupID returns the bridge id shared by every assigned member. ok is false
// when no member is assigned.
func (s State) GroupID(members []string) (id int, ok bool, err error) {
	var ids []int
	for _, m := range members {
		if v, found := s[m]; found && !slices.Contains(ids, v) {
			ids = append(ids, v)
		}
	}
	switch len(ids) {
	case 0:
		return 0, false, nil
	case 1:
		return ids[0], true, nil
	default:
		return 0, false, errcode.New(errcode.CodeInconsistent, "multiple bridge ids %v for interfaces %v", ids, members)
	}
}

// EnsureGroupID gives every unassigned member one fresh id drawn from gen and
// returns the id shared by the whole group.
func (s State) EnsureGroupID(members []string, gen func() int) (int, error) {
	var fresh int
	for _, m := range members {
		if _, ok := s[m]; ok {
			continue
		}
		if fresh == 0 {
			fresh = gen()
			logrus.WithFields(logrus.Fields{"bridge_id": fresh, "interfaces": members}).Debug("Generated bridge id")
		}
		s[m] = fresh
	}

	id, _, err := s.GroupID(members)
	return id, err
}

func (s State) Forget(members []string) {
	for _, m := range members {
		delete(s, m)
	}
}

type storeOpts struct {
	gen func() int
}

type StoreOpt func(*storeOpts)

func WithIDGenerator(gen func() int) StoreOpt {
	return func(o *storeOpts) { o.gen = gen }
}

// Store binds a State to the file it was loaded from.
type Store struct {
	path  string
	state State
	gen   func() int
}

func Open(path string, opts ...StoreOpt) (*Store, error) {
	o := storeOpts{gen: RandomBridgeID}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: s, gen: o.gen}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) EnsureGroupID(members []string) (int, error) {
	return s.state.EnsureGroupID(members, s.gen)
}

func (s *Store) LookupGroupID(members []string) (int, bool, error) {
	return s.state.GroupID(members)
}

func (s *Store) Save() error {
	return Save(s.path, s.state)
}

// ForgetGroup drops members and persists the result.
func (s *Store) ForgetGroup(members []string) error {
	s.state.Forget(members)
	return s.Save()
}

func RandomBridgeID() int {
	return minBridgeID + rand.Intn(maxBridgeID-minBridgeID+1)
}
