package fakesessionrepo

import (
	"sync"

	"github.com/jrsteele09/go-cowork-client/session"
)

var _ session.Repo = (*FakeRepo)(nil)

type FakeRepo struct {
	values map[string]string
	lock   sync.RWMutex

	// Fail, when set, is returned from every operation.
	Fail error
}

func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		values: make(map[string]string),
	}
}

func (r *FakeRepo) Load(key string) (string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.Fail != nil {
		return "", r.Fail
	}
	v, ok := r.values[key]
	if !ok {
		return "", session.ErrNotFound
	}
	return v, nil
}

func (r *FakeRepo) Save(key, value string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Fail != nil {
		return r.Fail
	}
	r.values[key] = value
	return nil
}

func (r *FakeRepo) Delete(key string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Fail != nil {
		return r.Fail
	}
	if _, ok := r.values[key]; !ok {
		return session.ErrNotFound
	}
	delete(r.values, key)
	return nil
}

// SetFail toggles failure injection under the repo lock.
func (r *FakeRepo) SetFail(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Fail = err
}
