package store

import (
	"context"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/stackify/cli/internal/domain"
)

// ListEpochs returns every epoch ordered by default height.
func (s *Store) ListEpochs(ctx context.Context) ([]domain.Epoch, error) {
	var out []domain.Epoch
	err := s.view(ctx, func(tx *bolt.Tx) error {
		return forEach(tx.Bucket(epochsBucket), func(e domain.Epoch) error {
			out = append(out, e)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DefaultBlockHeight < out[j].DefaultBlockHeight
	})
	return out, err
}

// InsertEpoch adds a new epoch to the timeline catalog.
func (s *Store) InsertEpoch(ctx context.Context, name string, height uint64) (domain.Epoch, error) {
	var ep domain.Epoch
	err := s.update(ctx, func(tx *bolt.Tx) error {
		var err error
		ep, err = insertEpoch(tx, name, height)
		return err
	})
	return ep, err
}

func insertEpoch(tx *bolt.Tx, name string, height uint64) (domain.Epoch, error) {
	if _, ok, err := findEpoch(tx, name); err != nil {
		return domain.Epoch{}, err
	} else if ok {
		return domain.Epoch{}, ErrEpochExists
	}
	b := tx.Bucket(epochsBucket)
	id, err := nextID(b)
	if err != nil {
		return domain.Epoch{}, err
	}
	ep := domain.Epoch{ID: id, Name: name, DefaultBlockHeight: height}
	return ep, putJSON(b, itob(id), ep)
}

func getEpoch(tx *bolt.Tx, id int64) (domain.Epoch, bool, error) {
	var ep domain.Epoch
	ok, err := getJSON(tx.Bucket(epochsBucket), itob(id), &ep)
	return ep, ok, err
}

func findEpoch(tx *bolt.Tx, name string) (domain.Epoch, bool, error) {
	var found domain.Epoch
	ok := false
	err := forEach(tx.Bucket(epochsBucket), func(e domain.Epoch) error {
		if e.Name == name {
			found, ok = e, true
		}
		return nil
	})
	return found, ok, err
}
