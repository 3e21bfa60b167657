package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/oklog/ulid/v2"

	"github.com/AvaProtocol/mevboost-aa/pkg/erc4337/userop"
	"github.com/AvaProtocol/mevboost-aa/storage/schema"
)

// Record is a journal entry for one submitted operation.
type Record struct {
	ID          string                `json:"id"`
	Status      schema.OpStatus       `json:"status"`
	UserOpHash  common.Hash           `json:"userOpHash"`
	BoostOpHash *common.Hash          `json:"boostOpHash,omitempty"`
	Op          *userop.UserOperation `json:"op"`
	SubmittedAt int64                 `json:"submittedAt"`
	UpdatedAt   int64                 `json:"updatedAt"`
	// transaction that carried the settlement event
	SettledTx *common.Hash `json:"settledTx,omitempty"`
}

func (r *Record) IsBoost() bool {
	return r.BoostOpHash != nil
}

// Journal keeps submitted operations keyed by status so the CLI can pick up
// pending ones after a restart.
type Journal struct {
	db Storage
}

func NewJournal(db Storage) *Journal {
	return &Journal{db: db}
}

func (j *Journal) hashIndexes(r *Record, key []byte) map[string][]byte {
	updates := map[string][]byte{
		string(schema.OpHashIndexKey(r.UserOpHash)): key,
	}
	if r.BoostOpHash != nil {
		updates[string(schema.OpHashIndexKey(*r.BoostOpHash))] = key
	}
	return updates
}

// Append stores r as pending. ID and timestamps are assigned here.
func (j *Journal) Append(r *Record) error {
	if r.Op == nil {
		return fmt.Errorf("journal record without operation")
	}

	now := time.Now()
	r.ID = ulid.Make().String()
	r.Status = schema.OpPending
	r.SubmittedAt = now.Unix()
	r.UpdatedAt = now.Unix()

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	key := schema.OpStorageKey(r.ID, r.Status)
	updates := j.hashIndexes(r, key)
	updates[string(key)] = data

	return j.db.BatchWrite(updates)
}

func (j *Journal) load(key []byte) (*Record, error) {
	data, err := j.db.GetKey(key)
	if err != nil {
		return nil, err
	}

	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode journal record %s: %w", key, err)
	}
	return r, nil
}

// Get looks id up under every status. It returns ErrNotFound when no record
// has that id.
func (j *Journal) Get(id string) (*Record, error) {
	for _, status := range schema.AllOpStatuses {
		r, err := j.load(schema.OpStorageKey(id, status))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return r, err
	}
	return nil, ErrNotFound
}

// FindByHash accepts either the user op hash or the boost op hash of a record.
func (j *Journal) FindByHash(hash common.Hash) (*Record, error) {
	key, err := j.db.GetKey(schema.OpHashIndexKey(hash))
	if err != nil {
		return nil, err
	}
	return j.load(key)
}

// UpdateStatus moves the record to its new status bucket. settledTx is only
// recorded when not nil.
func (j *Journal) UpdateStatus(id string, status schema.OpStatus, settledTx *common.Hash) (*Record, error) {
	r, err := j.Get(id)
	if err != nil {
		return nil, err
	}

	src := schema.OpStorageKey(r.ID, r.Status)
	dest := schema.OpStorageKey(r.ID, status)

	r.Status = status
	r.UpdatedAt = time.Now().Unix()
	if settledTx != nil {
		r.SettledTx = settledTx
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	if string(src) != string(dest) {
		if err := j.db.Move(src, dest); err != nil {
			return nil, err
		}
	}

	updates := j.hashIndexes(r, dest)
	updates[string(dest)] = data
	if err := j.db.BatchWrite(updates); err != nil {
		return nil, err
	}

	return r, nil
}

// List returns the records in a status bucket, oldest first.
func (j *Journal) List(status schema.OpStatus) ([]*Record, error) {
	items, err := j.db.GetByPrefix(schema.OpByStatusStoragePrefix(status))
	if err != nil {
		return nil, err
	}

	result := make([]*Record, 0, len(items))
	for _, item := range items {
		r := &Record{}
		if err := json.Unmarshal(item.Value, r); err != nil {
			return nil, fmt.Errorf("decode journal record %s: %w", item.Key, err)
		}
		result = append(result, r)
	}
	return result, nil
}

func (j *Journal) Count(status schema.OpStatus) (int64, error) {
	return j.db.CountKeysByPrefix(schema.OpByStatusStoragePrefix(status))
}

// Forget drops a record and its hash indexes.
func (j *Journal) Forget(id string) error {
	r, err := j.Get(id)
	if err != nil {
		return err
	}

	for k := range j.hashIndexes(r, nil) {
		if err := j.db.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return j.db.Delete(schema.OpStorageKey(r.ID, r.Status))
}
