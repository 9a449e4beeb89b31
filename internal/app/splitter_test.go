package app_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"listings_pipeline/internal/app"
	"listings_pipeline/internal/domain"
)

func TestSplit_250Rows(t *testing.T) {
	store := newFakeStore()
	src, lines := source(250)
	store.put("in", "zips.csv", src)

	svc := app.NewSplitService(store, "out")
	sum := svc.Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "zips.csv"})
	if sum.Err != "" {
		t.Fatalf("unexpected err: %s", sum.Err)
	}
	if sum.Rows != 250 || sum.Uploaded != 3 || sum.Failed != 0 {
		t.Fatalf("summary: %+v", sum)
	}

	want := []string{"zip-code-split-file-001.csv", "zip-code-split-file-002.csv", "zip-code-split-file-003.csv"}
	if got := store.names("out"); !reflect.DeepEqual(got, want) {
		t.Fatalf("files: %v", got)
	}

	// strip the repeated headers and the original rows come back in order
	var rebuilt []string
	for _, name := range want {
		body := string(store.objects["out/"+name])
		if store.types["out/"+name] != "text/csv" {
			t.Fatalf("content type %q", store.types["out/"+name])
		}
		parts := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
		if parts[0] != "id,value" {
			t.Fatalf("%s header %q", name, parts[0])
		}
		rebuilt = append(rebuilt, parts[1:]...)
	}
	if !reflect.DeepEqual(rebuilt, lines) {
		t.Fatalf("rebuilt rows differ")
	}
}

func TestSplit_FailedUploadContinues(t *testing.T) {
	store := newFakeStore()
	src, _ := source(250)
	store.put("in", "zips.csv", src)
	store.failNames["zip-code-split-file-002.csv"] = true

	sum := app.NewSplitService(store, "out").Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "zips.csv"})
	if sum.Err != "" {
		t.Fatalf("job should not fail: %s", sum.Err)
	}
	if sum.Uploaded != 2 || sum.Failed != 1 || len(sum.Batches) != 3 {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.Batches[1].Err == "" || sum.Batches[2].Err != "" {
		t.Fatalf("batch results: %+v", sum.Batches)
	}
	if got := store.names("out"); len(got) != 2 {
		t.Fatalf("files: %v", got)
	}
}

func TestSplit_HeaderOnlyWritesNothing(t *testing.T) {
	store := newFakeStore()
	store.put("in", "zips.csv", "id,value\n")
	sum := app.NewSplitService(store, "out").Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "zips.csv"})
	if sum.Err != "" || len(sum.Batches) != 0 || len(store.names("out")) != 0 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestSplit_EmptySourceIsFatal(t *testing.T) {
	store := newFakeStore()
	store.put("in", "zips.csv", "")
	claims := &fakeClaims{}
	sum := app.NewSplitService(store, "out", app.WithClaims(claims, 0)).
		Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "zips.csv", Generation: "7"})
	if !strings.Contains(sum.Err, domain.ErrEmptySource.Error()) {
		t.Fatalf("expected empty source error, got %q", sum.Err)
	}
	if len(store.names("out")) != 0 {
		t.Fatalf("no output expected")
	}
	if len(claims.released) != 1 || claims.released[0] != "split:in/zips.csv#7" {
		t.Fatalf("claim not released: %v", claims.released)
	}
}

func TestSplit_MissingSource(t *testing.T) {
	sum := app.NewSplitService(newFakeStore(), "out").Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "nope.csv"})
	if sum.Err == "" {
		t.Fatalf("expected download error")
	}
}

func TestSplit_DuplicateEventSkipped(t *testing.T) {
	store := newFakeStore()
	src, _ := source(10)
	store.put("in", "zips.csv", src)
	claims := &fakeClaims{}
	notes := &fakeNotifier{}
	svc := app.NewSplitService(store, "out", app.WithClaims(claims, 0), app.WithNotifier(notes))
	ev := domain.ObjectEvent{Bucket: "in", Name: "zips.csv", Generation: "1"}

	first := svc.Split(context.Background(), ev)
	store.objects = map[string][]byte{"in/zips.csv": []byte(src)}
	second := svc.Split(context.Background(), ev)

	if first.Duplicate || first.Uploaded != 1 {
		t.Fatalf("first: %+v", first)
	}
	if !second.Duplicate || len(second.Batches) != 0 || len(store.names("out")) != 0 {
		t.Fatalf("second: %+v", second)
	}
	if len(notes.keys) != 1 || notes.keys[0] != "listings.split" {
		t.Fatalf("notifications: %v", notes.keys)
	}
}

func TestSplit_ClaimStoreDownProcessesAnyway(t *testing.T) {
	store := newFakeStore()
	src, _ := source(3)
	store.put("in", "zips.csv", src)
	claims := &fakeClaims{err: errors.New("redis down")}
	sum := app.NewSplitService(store, "out", app.WithClaims(claims, 0)).
		Split(context.Background(), domain.ObjectEvent{Bucket: "in", Name: "zips.csv"})
	if sum.Duplicate || sum.Uploaded != 1 {
		t.Fatalf("summary: %+v", sum)
	}
}
