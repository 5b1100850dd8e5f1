package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
)

var _ tokenstore.Store = (*FileStore)(nil)

const (
	filePerm = 0o600
	dirPerm  = 0o700
)

type fileEntry struct {
	Value     string    `yaml:"value"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

type fileData struct {
	Slots map[tokenstore.Slot]fileEntry `yaml:"slots"`
}

// FileStore persists the session to a YAML file readable only by its owner,
// so CLI invocations share one login.
type FileStore struct {
	path    string
	policy  tokenstore.Policy
	nowTime func() time.Time
	lock    sync.RWMutex
}

type Option func(*FileStore)

func WithNowTime(nowTime func() time.Time) Option {
	return func(f *FileStore) {
		f.nowTime = nowTime
	}
}

func New(path string, policy tokenstore.Policy, opts ...Option) *FileStore {
	f := &FileStore{
		path:    path,
		policy:  policy,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(_ context.Context, slot tokenstore.Slot) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := f.load()
	if err != nil {
		return "", err
	}
	e, ok := data.Slots[slot]
	if !ok {
		return "", internalerrors.ErrNotFound
	}
	now := f.nowTime()
	if f.policy.Expiry > 0 && !now.Before(e.ExpiresAt) {
		delete(data.Slots, slot)
		if err := f.save(data); err != nil {
			return "", err
		}
		return "", internalerrors.ErrNotFound
	}
	e.ExpiresAt = now.Add(f.policy.Expiry)
	data.Slots[slot] = e
	if err := f.save(data); err != nil {
		return "", err
	}
	return e.Value, nil
}

func (f *FileStore) Set(_ context.Context, slot tokenstore.Slot, value string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data.Slots[slot] = fileEntry{Value: value, ExpiresAt: f.nowTime().Add(f.policy.Expiry)}
	return f.save(data)
}

func (f *FileStore) Delete(_ context.Context, slot tokenstore.Slot) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data.Slots[slot]; !ok {
		return nil
	}
	delete(data.Slots, slot)
	return f.save(data)
}

func (f *FileStore) Clear(_ context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove session file")
	}
	return nil
}

func (f *FileStore) load() (*fileData, error) {
	data := &fileData{Slots: make(map[tokenstore.Slot]fileEntry)}
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileStore.load] read session file")
	}
	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, errors.Wrap(err, "[FileStore.load] parse session file")
	}
	if data.Slots == nil {
		data.Slots = make(map[tokenstore.Slot]fileEntry)
	}
	return data, nil
}

// save writes through a temp file and rename so readers never see a partial file.
func (f *FileStore) save(data *fileData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "[FileStore.save] encode session")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrap(err, "[FileStore.save] create session dir")
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "[FileStore.save] create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileStore.save] chmod temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileStore.save] write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[FileStore.save] close temp file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "[FileStore.save] replace session file")
	}
	return nil
}
