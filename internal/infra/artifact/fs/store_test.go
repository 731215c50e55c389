package fs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"appstudio/internal/infra/artifact"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	info, err := store.Put(ctx, "exports/app1.json", strings.NewReader(`{"name":"token"}`), artifact.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"application_id": "app1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"name":"token"}`)) || info.ContentType != "application/json" {
		t.Fatalf("info %+v", info)
	}
	if info.ETag == "" {
		t.Fatal("missing etag")
	}

	got, rc, err := store.Get(ctx, "exports/app1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(payload) != `{"name":"token"}` {
		t.Fatalf("payload %s", payload)
	}
	if got.Metadata["application_id"] != "app1" {
		t.Fatalf("metadata %v", got.Metadata)
	}
}

func TestPutOverwritesAndChangesETag(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, "exports/app1.json", strings.NewReader("v1"), artifact.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second, err := store.Put(ctx, "exports/app1.json", strings.NewReader("v2"), artifact.PutOptions{})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if first.ETag == second.ETag {
		t.Fatal("etag should change with content")
	}

	_, rc, err := store.Get(ctx, "exports/app1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	payload, _ := io.ReadAll(rc)
	if string(payload) != "v2" {
		t.Fatalf("payload %s", payload)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := newStore(t)
	if _, _, err := store.Get(context.Background(), "missing"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := store.Head(context.Background(), "missing"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("head got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", strings.NewReader("x"), artifact.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "k")
	if err != nil || !existed {
		t.Fatalf("delete %v %v", existed, err)
	}
	existed, err = store.Delete(ctx, "k")
	if err != nil || existed {
		t.Fatalf("second delete %v %v", existed, err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, key := range []string{"exports/app1.json", "exports/app2.json", "thumbnails/app1.png"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), artifact.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "exports/app1.json" || infos[1].Key != "exports/app2.json" {
		t.Fatalf("infos %v", infos)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all %v", all)
	}
}

func TestSanitizeKeyRejectsEscapes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), artifact.PutOptions{}); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestPresignURLOnlyGET(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "exports/app1.json", artifact.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "exports/app1.json") {
		t.Fatalf("url %q", url)
	}
	if _, err := store.PresignURL(ctx, "k", artifact.SignedURLOptions{Method: "PUT"}); !errors.Is(err, artifact.ErrUnsupported) {
		t.Fatalf("got %v", err)
	}
}

func TestDriver(t *testing.T) {
	if newStore(t).Driver() != artifact.DriverFilesystem {
		t.Fatal("wrong driver")
	}
}
