package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/furisto/debrief/backend/debrief"
)

// DefaultKey names the storage slot holding the archive blob.
const DefaultKey = "debrief_pro_records"

// Archive is the locally persisted list of debrief records. The whole list
// lives in one slot and every change rewrites it completely.
type Archive struct {
	mu   sync.Mutex
	slot Slot
	key  string
}

type Option func(*Archive)

func WithKey(key string) Option {
	return func(a *Archive) {
		a.key = key
	}
}

func New(slot Slot, opts ...Option) *Archive {
	a := &Archive{
		slot: slot,
		key:  DefaultKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load returns the archived records, newest first. Missing or unreadable
// data yields an empty list; the cause is logged and otherwise dropped.
func (a *Archive) Load() []debrief.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load()
}

func (a *Archive) load() []debrief.Record {
	data, err := a.slot.Read(a.key)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			slog.Error("failed to read archive", "key", a.key, "error", err)
		}
		return []debrief.Record{}
	}

	var records []debrief.Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Error("discarding malformed archive", "key", a.key, "error", err)
		return []debrief.Record{}
	}
	if records == nil {
		return []debrief.Record{}
	}
	return records
}

// Save overwrites the persisted blob with records.
func (a *Archive) Save(records []debrief.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.save(records)
}

func (a *Archive) save(records []debrief.Record) error {
	if records == nil {
		records = []debrief.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := a.slot.Write(a.key, data); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}
	return nil
}

// Upsert stores record. An archived record with the same id is replaced where
// it stands and keeps its creation timestamp; a new record goes to the front.
func (a *Archive) Upsert(record debrief.Record) ([]debrief.Record, error) {
	if record.ID == "" {
		return nil, fmt.Errorf("record has no id")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	record = record.Normalized()
	records := a.load()

	idx := slices.IndexFunc(records, func(r debrief.Record) bool { return r.ID == record.ID })
	if idx >= 0 {
		if records[idx].Timestamp != 0 {
			record.Timestamp = records[idx].Timestamp
		}
		records[idx] = record
	} else {
		records = append([]debrief.Record{record}, records...)
	}

	if err := a.save(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Remove deletes the record with the given id. Removing an unknown id is not
// an error; the list is returned unchanged and nothing is written.
func (a *Archive) Remove(id string) ([]debrief.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := a.load()
	kept := slices.DeleteFunc(slices.Clone(records), func(r debrief.Record) bool { return r.ID == id })
	if len(kept) == len(records) {
		return records, nil
	}

	if err := a.save(kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (a *Archive) Get(id string) (debrief.Record, bool) {
	for _, r := range a.Load() {
		if r.ID == id {
			return r, true
		}
	}
	return debrief.Record{}, false
}

// Find resolves a full id or an unambiguous id prefix.
func (a *Archive) Find(idOrPrefix string) (debrief.Record, error) {
	var matches []debrief.Record
	for _, r := range a.Load() {
		if r.ID == idOrPrefix {
			return r, nil
		}
		if len(idOrPrefix) >= 4 && len(r.ID) > len(idOrPrefix) && r.ID[:len(idOrPrefix)] == idOrPrefix {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return debrief.Record{}, &ErrNotFound{ID: idOrPrefix}
	case 1:
		return matches[0], nil
	default:
		return debrief.Record{}, fmt.Errorf("id prefix %q is ambiguous (%d matches)", idOrPrefix, len(matches))
	}
}

type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("debrief %q not found", e.ID)
}

func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}
