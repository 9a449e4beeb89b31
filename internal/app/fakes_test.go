package app_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"listings_pipeline/internal/domain"
)

// ---- fakes ----

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	failNames map[string]bool // uploads to these names fail
	deleteErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}, failNames: map[string]bool{}}
}

func (f *fakeStore) put(bucket, name, body string) { f.objects[bucket+"/"+name] = []byte(body) }

func (f *fakeStore) Download(ctx context.Context, bucket, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[bucket+"/"+name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) Upload(ctx context.Context, bucket, name, contentType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNames[name] {
		return errors.New("upload refused")
	}
	f.objects[bucket+"/"+name] = append([]byte(nil), data...)
	f.types[bucket+"/"+name] = contentType
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, bucket, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, bucket+"/"+name)
	f.deleted = append(f.deleted, bucket+"/"+name)
	return nil
}

func (f *fakeStore) names(bucket string) []string {
	var out []string
	for k := range f.objects {
		if len(k) > len(bucket) && k[:len(bucket)+1] == bucket+"/" {
			out = append(out, k[len(bucket)+1:])
		}
	}
	sort.Strings(out)
	return out
}

type fakeWarehouse struct {
	rows      map[string][]domain.ListingRow
	inserted  []domain.ListingRow
	insertErr map[string]error
	lookupErr map[string]error
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{
		rows:      map[string][]domain.ListingRow{},
		insertErr: map[string]error{},
		lookupErr: map[string]error{},
	}
}

func (w *fakeWarehouse) FindByMLS(ctx context.Context, mls string) ([]domain.ListingRow, error) {
	if err := w.lookupErr[mls]; err != nil {
		return nil, err
	}
	return w.rows[mls], nil
}

func (w *fakeWarehouse) InsertListing(ctx context.Context, row domain.ListingRow) error {
	if err := w.insertErr[row.MLS]; err != nil {
		return err
	}
	w.inserted = append(w.inserted, row)
	w.rows[row.MLS] = append(w.rows[row.MLS], row)
	return nil
}

type fakeClaims struct {
	held     map[string]bool
	released []string
	err      error
}

func (c *fakeClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.held == nil {
		c.held = map[string]bool{}
	}
	if c.held[key] {
		return false, nil
	}
	c.held[key] = true
	return true, nil
}

func (c *fakeClaims) Release(ctx context.Context, key string) error {
	delete(c.held, key)
	c.released = append(c.released, key)
	return nil
}

type fakeNotifier struct{ keys []string }

func (n *fakeNotifier) Notify(ctx context.Context, routingKey string, v any) error {
	n.keys = append(n.keys, routingKey)
	return nil
}

// ---- helpers ----

const listingHeader = "Picture Count,MLS #,Class,Property Type,Status,Price,County,Address,City,Zip,#Br,#FBath,#HalfBa,Gar,Sq Feet,List Agent - Agt Name,List Off 1 - Ofc Name"

func listingLine(mls, price, sqft string) string {
	return fmt.Sprintf(`3,%s,RES,Single Family,Active,"%s",Travis,1 Main St,Austin,78701,3,2,1,2,%s,Ana Agent,Best Realty`, mls, price, sqft)
}

func fixedClock() time.Time { return time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC) }
