package kv

import (
	"bytes"
	"sort"
	"testing"
)

// storeUnderTest exercises the Store contract against any implementation.
func storeUnderTest(t *testing.T, s Store) {
	t.Helper()

	// Absent key
	_, ok, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected miss for absent key")
	}

	// Set then Get
	if err := s.Set("a", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte(`{"x":1}`)) {
		t.Errorf("got %q, want {\"x\":1}", v)
	}

	// Overwrite
	if err := s.Set("a", []byte(`{"x":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, _, _ = s.Get("a")
	if !bytes.Equal(v, []byte(`{"x":2}`)) {
		t.Errorf("overwrite lost: got %q", v)
	}

	// Keys
	if err := s.Set("b", []byte("2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("unexpected keys: %v", keys)
	}

	// Delete
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get("a"); ok {
		t.Error("key survived delete")
	}

	// Deleting an absent key is not an error
	if err := s.Delete("a"); err != nil {
		t.Errorf("delete of absent key failed: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	storeUnderTest(t, s)
}

func TestSQLiteLargeValue(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	// History blobs can be megabytes of JSON
	big := bytes.Repeat([]byte("x"), 4<<20)
	if err := s.Set("history_armory", big); err != nil {
		t.Fatalf("Set large value failed: %v", err)
	}
	v, ok, err := s.Get("history_armory")
	if err != nil || !ok {
		t.Fatalf("Get large value failed: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(v, big) {
		t.Error("large value did not round-trip")
	}
}

func TestMemoryCopySemantics(t *testing.T) {
	m := NewMemory()
	src := []byte("abc")
	m.Set("k", src)
	src[0] = 'z'

	v, _, _ := m.Get("k")
	if string(v) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", v)
	}
}
