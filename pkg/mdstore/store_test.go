package mdstore_test

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	bolt "go.etcd.io/bbolt"

	. "src.mdtree.dev/pkg/mdstore"
	"src.mdtree.dev/pkg/testutil"
)

func TestStore_GetPut(t *testing.T) {
	st := TempStore(t)

	if _, ok, err := st.Get("html", "# a\n"); ok || err != nil {
		t.Errorf("Get on empty store -> %v, %v", ok, err)
	}
	testutil.Must(st.Put("html", "# a\n", "<h1>a</h1>\n"))
	got, ok, err := st.Get("html", "# a\n")
	if !ok || err != nil || got != "<h1>a</h1>\n" {
		t.Errorf("Get -> %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := st.Get("md", "# a\n"); ok {
		t.Errorf("entry found under another format")
	}
	if _, ok, _ := st.Get("html", "# b\n"); ok {
		t.Errorf("entry found for another text")
	}
}

func TestStore_Render(t *testing.T) {
	st := TempStore(t)

	calls := 0
	render := func() (string, error) { calls++; return "out", nil }
	for i := 0; i < 3; i++ {
		if got, err := st.Render("html", "text", render); got != "out" || err != nil {
			t.Errorf("Render -> %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("render called %d times, want 1", calls)
	}

	errBoom := errors.New("boom")
	failing := func() (string, error) { return "", errBoom }
	if _, err := st.Render("html", "other", failing); !errors.Is(err, errBoom) {
		t.Errorf("got error %v, want boom", err)
	}
	if _, ok, _ := st.Get("html", "other"); ok {
		t.Errorf("failed render was cached")
	}
}

func TestStore_StatsAndPurge(t *testing.T) {
	st := TempStore(t)

	testutil.Must(st.Put("html", "a", "12345"))
	testutil.Must(st.Put("md", "a", "123"))
	stats := testutil.Must1(st.Stats())
	if diff := cmp.Diff(Stats{Entries: 2, Bytes: 8}, stats); diff != "" {
		t.Errorf("Stats (-want +got):\n%s", diff)
	}

	testutil.Must(st.Purge())
	if stats := testutil.Must1(st.Stats()); stats != (Stats{}) {
		t.Errorf("Stats after Purge = %+v", stats)
	}
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	st := testutil.Must1(NewStore(path))
	testutil.Must(st.Put("html", "a", "b"))
	testutil.Must(st.Close())

	st = testutil.Must1(NewStore(path))
	defer st.Close()
	if got, ok, _ := st.Get("html", "a"); !ok || got != "b" {
		t.Errorf("after reopen, Get -> %q, %v", got, ok)
	}
}

func TestStore_OutdatedVersionIsPurged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	st := testutil.Must1(NewStore(path))
	testutil.Must(st.Put("html", "a", "b"))
	testutil.Must(st.Close())

	db := testutil.Must1(bolt.Open(path, 0644, nil))
	testutil.Must(db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("meta")).Put([]byte("version"), []byte("0"))
	}))
	st = testutil.Must1(NewStoreFromDB(db))
	defer st.Close()
	if _, ok, _ := st.Get("html", "a"); ok {
		t.Errorf("entry from an outdated cache survived")
	}
}

func TestStore_ConcurrentUse(t *testing.T) {
	st := TempStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := string(rune('a' + i))
			if _, err := st.Render("html", text, func() (string, error) { return text, nil }); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if stats := testutil.Must1(st.Stats()); stats.Entries != 8 {
		t.Errorf("got %d entries, want 8", stats.Entries)
	}
}
