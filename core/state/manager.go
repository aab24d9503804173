package state

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"carbonmarket/storage"
)

// Manager provides the marketplace engine with typed record access on top of a
// key-value database. Writes are buffered in memory and journaled so they can
// be reverted to any snapshot; Commit flushes the buffer to the database in a
// single atomic batch.
//
// Manager is not safe for concurrent use; the engine serialises access.
type Manager struct {
	db      storage.Database
	dirty   map[string][]byte
	journal []journalEntry
}

type journalEntry struct {
	key     string
	prev    []byte
	hadPrev bool
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		dirty: make(map[string][]byte),
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func prefixedKey(prefix []byte, id []byte) []byte {
	buf := make([]byte, len(prefix)+len(id))
	copy(buf, prefix)
	copy(buf[len(prefix):], id)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if value, ok := m.dirty[string(key)]; ok {
		return value, nil
	}
	if m.db == nil {
		return nil, nil
	}
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) put(key, value []byte) {
	k := string(key)
	prev, had := m.dirty[k]
	m.journal = append(m.journal, journalEntry{key: k, prev: prev, hadPrev: had})
	m.dirty[k] = append([]byte(nil), value...)
}

// Snapshot returns an identifier for the current write set.
func (m *Manager) Snapshot() int {
	return len(m.journal)
}

// RevertToSnapshot discards every write made after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 {
		id = 0
	}
	for i := len(m.journal) - 1; i >= id; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	if id < len(m.journal) {
		m.journal = m.journal[:id]
	}
}

// Pending reports the number of buffered keys awaiting Commit.
func (m *Manager) Pending() int {
	return len(m.dirty)
}

// Commit writes every buffered key to the database in one batch and clears the
// journal. Keys are written in sorted order so batches are deterministic.
func (m *Manager) Commit() error {
	if len(m.dirty) == 0 {
		m.journal = nil
		return nil
	}
	if m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	keys := make([]string, 0, len(m.dirty))
	for k := range m.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, k := range keys {
		batch.Put([]byte(k), m.dirty[k])
	}
	if err := m.db.Write(batch); err != nil {
		return err
	}
	m.dirty = make(map[string][]byte)
	m.journal = nil
	return nil
}

// Discard drops every buffered write without touching the database.
func (m *Manager) Discard() {
	m.dirty = make(map[string][]byte)
	m.journal = nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(kvKey(key), encoded)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) loadRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) writeRecord(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(key, encoded)
	return nil
}
