package files

import "io"

// DummyStore is a no-op blob store for tests.
type DummyStore struct{}

func NewDummyStore() *DummyStore { return &DummyStore{} }

func (DummyStore) Save(filename string, _ io.Reader) (string, error) { return "videos/" + filename, nil }

func (DummyStore) Remove(string) error { return nil }
