package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileKV is a KV backed by a single JSON file mapping keys to values.
// Every Set/Delete rewrites the file synchronously, so the on-disk state
// always reflects the last completed write.
type FileKV struct {
	mu   sync.RWMutex
	path string
	s    map[string]string
}

func NewFileKV(dataDir string) (*FileKV, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	kv := &FileKV{
		path: filepath.Join(dataDir, "store.json"),
		s:    map[string]string{},
	}
	if err := kv.load(); err != nil {
		return nil, err
	}
	return kv, nil
}

func (kv *FileKV) load() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	b, err := os.ReadFile(kv.path)
	if err != nil {
		if os.IsNotExist(err) {
			kv.s = map[string]string{}
			return nil
		}
		return err
	}

	loaded := map[string]string{}
	if err := json.Unmarshal(b, &loaded); err != nil {
		// An unreadable key file is treated like an absent one; the
		// store layer repairs individual values on read.
		loaded = map[string]string{}
	}
	kv.s = loaded
	return nil
}

func (kv *FileKV) saveLocked() error {
	b, err := json.MarshalIndent(kv.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(kv.path, b, 0o644)
}

func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.s[key]
	return v, ok, nil
}

func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.s[key] = value
	return kv.saveLocked()
}

func (kv *FileKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.s, key)
	return kv.saveLocked()
}
