// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/profilematch/core"
	"github.com/poiesic/profilematch/storage"
)

// SchemaVersion is the layout version written by InitializeSchema.
const SchemaVersion = 1

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
type ProfileRepository struct {
	backend *Backend
	seq     *badger.Sequence
	logger  *slog.Logger
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// newProfileRepository is an internal constructor that returns the concrete type.
func newProfileRepository(backend *Backend) (*ProfileRepository, error) {
	seq, err := backend.GetSequence(profileIDSeq)
	if err != nil {
		return nil, err
	}
	return &ProfileRepository{
		backend: backend,
		seq:     seq,
		logger:  slog.Default().With("component", "profile-repository"),
	}, nil
}

// NewProfileRepository creates a profile repository on backend.
// The caller still owns backend and must close it after the repository.
func NewProfileRepository(backend *Backend) (storage.ProfileRepository, error) {
	return newProfileRepository(backend)
}

// Close releases the id sequence.
func (r *ProfileRepository) Close() error {
	return r.seq.Release()
}

// InitializeSchema records the schema version, refusing stores written by a
// newer version.
func (r *ProfileRepository) InitializeSchema(ctx context.Context) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(schemaVersionKey))
		switch {
		case err == nil:
			var version int
			err = item.Value(func(val []byte) error {
				var convErr error
				version, convErr = strconv.Atoi(string(val))
				return convErr
			})
			if err != nil {
				return fmt.Errorf("%w: unreadable version: %w", storage.ErrSchemaMismatch, err)
			}
			if version > SchemaVersion {
				return fmt.Errorf("%w: store has version %d, code supports %d", storage.ErrSchemaMismatch, version, SchemaVersion)
			}
			if version == SchemaVersion {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := tx.Set([]byte(schemaVersionKey), []byte(strconv.Itoa(SchemaVersion))); err != nil {
			return err
		}
		r.logger.Info("initialized schema", "version", SchemaVersion)
		return tx.Commit()
	}, true)
}

// GetProfileByURL looks up a profile through the URL index.
func (r *ProfileRepository) GetProfileByURL(ctx context.Context, url string) (*storage.StoredProfile, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, core.ErrMissingURL)
	}

	var result *storage.StoredProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := readURLIndex(tx, url)
		if err != nil {
			return err
		}
		result, err = readProfile(tx, id)
		return err
	}, false)
	return result, err
}

// InsertProfile stores profile unless its URL is already indexed.
// Concurrent inserts of one URL race on the URL index key; the loser's
// commit conflicts and it returns the winner's id.
func (r *ProfileRepository) InsertProfile(ctx context.Context, profile *core.Profile, vector []float32) (string, bool, error) {
	if err := core.ValidateProfile(profile); err != nil {
		return "", false, err
	}
	url := strings.TrimSpace(profile.ProfileURL)
	if url == "" {
		return "", false, fmt.Errorf("%w: %w", core.ErrInvalidProfile, core.ErrMissingURL)
	}

	existing, err := r.GetProfileByURL(ctx, url)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", false, err
	}

	id, err := r.nextID()
	if err != nil {
		return "", false, err
	}

	err = r.addProfile(id, url, profile, vector)
	if err != nil {
		// Someone else may have inserted the same URL first
		existing, findErr := r.GetProfileByURL(ctx, url)
		if findErr == nil {
			return existing.ID, false, nil
		}
		return "", false, err
	}

	r.logger.Debug("inserted profile", "id", id, "url", url)
	return id, true, nil
}

func (r *ProfileRepository) nextID() (string, error) {
	n, err := r.seq.Next()
	if err != nil {
		return "", err
	}
	// Skip id 0
	if n == 0 {
		if n, err = r.seq.Next(); err != nil {
			return "", err
		}
	}
	return strconv.FormatUint(n, 10), nil
}

func (r *ProfileRepository) addProfile(id, url string, profile *core.Profile, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		urlKey := makeProfileURLKey(url)
		if _, err := tx.Get(urlKey); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		doc := storage.NewProfileDocument(profile)
		doc.ProfileURL = url
		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt
		value, err := storage.MarshalProfileDocument(doc)
		if err != nil {
			return err
		}

		if err := tx.Set(makeProfileKey(id), value); err != nil {
			return err
		}
		if err := tx.Set(urlKey, []byte(id)); err != nil {
			return err
		}
		if err := tx.Set(makeProfileVectorKey(id), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetProfile retrieves a single profile by storage id.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*storage.StoredProfile, error) {
	var result *storage.StoredProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProfile(tx, id)
		return err
	}, false)
	return result, err
}

// UpdateProfileVectors replaces stored embeddings in one transaction.
func (r *ProfileRepository) UpdateProfileVectors(ctx context.Context, updates ...storage.VectorUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, u := range updates {
			key := makeProfileKey(u.ID)
			doc, err := readDocument(tx, key)
			if err != nil {
				return fmt.Errorf("profile %s: %w", u.ID, err)
			}

			doc.UpdatedAt = now
			value, err := storage.MarshalProfileDocument(doc)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
			if err := tx.Set(makeProfileVectorKey(u.ID), storage.MarshalVector(u.Vector)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ForEachProfile reads every decodable profile in one read transaction and
// then calls fn outside it, so fn may write to the repository.
func (r *ProfileRepository) ForEachProfile(ctx context.Context, fn func(*storage.StoredProfile) error) error {
	var profiles []*storage.StoredProfile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profilePrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := string(iter.Item().Key()[len(profilePrefix):])
			stored, err := readProfile(tx, id)
			if err != nil {
				if errors.Is(err, storage.ErrSerializationFailed) {
					r.logger.Debug("skipping malformed profile", "id", id, "err", err)
					continue
				}
				return err
			}
			profiles = append(profiles, stored)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

// CountProfiles counts profile keys without reading values.
func (r *ProfileRepository) CountProfiles(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profilePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// SearchSimilar ranks stored vectors by dot product with vector and loads
// the matching profiles. Profiles that fail to decode are skipped.
func (r *ProfileRepository) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*storage.SearchHit, error) {
	matches, err := r.backend.FindSimilar(ctx, profileVectorPrefix, vector, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]*storage.SearchHit, 0, len(matches))
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, m := range matches {
			doc, err := readDocument(tx, makeProfileKey(m.id))
			if err != nil {
				if errors.Is(err, storage.ErrSerializationFailed) || errors.Is(err, storage.ErrNotFound) {
					r.logger.Debug("skipping search hit", "id", m.id, "err", err)
					continue
				}
				return err
			}
			hits = append(hits, &storage.SearchHit{
				ID:      m.id,
				Profile: doc.Profile(),
				Score:   m.score,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func readURLIndex(tx *badger.Txn, url string) (string, error) {
	item, err := tx.Get(makeProfileURLKey(url))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// readDocument reads and decodes a profile document.
// Returns storage.ErrNotFound if the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*storage.ProfileDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var doc *storage.ProfileDocument
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalProfileDocument(val)
		return err
	})
	return doc, err
}

// readProfile reads a profile document and its vector.
func readProfile(tx *badger.Txn, id string) (*storage.StoredProfile, error) {
	doc, err := readDocument(tx, makeProfileKey(id))
	if err != nil {
		return nil, err
	}

	stored := &storage.StoredProfile{
		ID:         id,
		Profile:    doc.Profile(),
		InsertedAt: doc.InsertedAt,
		UpdatedAt:  doc.UpdatedAt,
	}

	item, err := tx.Get(makeProfileVectorKey(id))
	switch {
	case err == nil:
		err = item.Value(func(val []byte) error {
			var err error
			stored.Vector, err = storage.UnmarshalVector(val)
			return err
		})
		if err != nil {
			return nil, err
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return nil, err
	}
	return stored, nil
}
