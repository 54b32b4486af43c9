package parsedresumes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestServiceStoreAssignsID(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	stored, reused, err := svc.Store(context.Background(), ParsedResume{
		UserID:        "google:117",
		ContentHash:   "abc123",
		RawText:       "John Doe",
		ParsedContent: json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if reused {
		t.Fatalf("expected fresh store, got reused")
	}
	if stored.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be stamped")
	}
}

func TestServiceStoreDuplicateReturnsExistingRow(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	first, _, err := svc.Store(ctx, ParsedResume{
		UserID:        "google:117",
		ContentHash:   "abc123",
		RawText:       "John Doe",
		ParsedContent: json.RawMessage(`{"v":1}`),
	})
	if err != nil {
		t.Fatalf("first Store: %v", err)
	}

	second, reused, err := svc.Store(ctx, ParsedResume{
		UserID:        "someone-else",
		ContentHash:   "abc123",
		RawText:       "John Doe",
		ParsedContent: json.RawMessage(`{"v":2}`),
	})
	if err != nil {
		t.Fatalf("second Store: %v", err)
	}
	if !reused {
		t.Fatalf("expected reused on duplicate hash")
	}
	if second.ID != first.ID {
		t.Fatalf("expected first row to win, got id %d want %d", second.ID, first.ID)
	}
	if string(second.ParsedContent) != `{"v":1}` {
		t.Fatalf("expected first write's content, got %s", second.ParsedContent)
	}
}

func TestServiceStoreConcurrentSameHash(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	reuses := make([]bool, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, reused, err := svc.Store(context.Background(), ParsedResume{
				UserID:        "google:117",
				ContentHash:   "same-hash",
				RawText:       "John Doe",
				ParsedContent: json.RawMessage(`{}`),
			})
			ids[i] = stored.ID
			reuses[i] = reused
			errs[i] = err
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got id %d, want %d", i, ids[i], ids[0])
		}
		if !reuses[i] {
			fresh++
		}
	}
	if fresh != 1 {
		t.Fatalf("expected exactly one fresh store, got %d", fresh)
	}
}

func TestServiceLookupByHashMissIsNotAnError(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	_, found, err := svc.LookupByHash(context.Background(), "missing")
	if err != nil {
		t.Fatalf("LookupByHash: %v", err)
	}
	if found {
		t.Fatalf("expected miss")
	}
}

type fakeApps struct {
	lastUse map[int64]LastUse
	err     error
	gotIDs  []int64
}

func (f *fakeApps) LatestByParsedResume(ctx context.Context, ids []int64) (map[int64]LastUse, error) {
	f.gotIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.lastUse, nil
}

func TestServiceListForUserAttachesLastUse(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	id, err := repo.Create(ctx, ParsedResume{
		UserID:        "google:117",
		ContentHash:   "abc123",
		RawText:       "text",
		ParsedContent: json.RawMessage(`{}`),
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	apps := &fakeApps{lastUse: map[int64]LastUse{
		id: {Company: "Acme", Role: "Engineer", Date: time.Now().UTC()},
	}}
	svc := &Service{Repo: repo, Apps: apps}

	items, lastUsed, err := svc.ListForUser(ctx, "google:117", 0, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if len(apps.gotIDs) != 1 || apps.gotIDs[0] != id {
		t.Fatalf("expected lookup for id %d, got %v", id, apps.gotIDs)
	}
	lu, ok := lastUsed[id]
	if !ok {
		t.Fatalf("expected last use entry for %d", id)
	}
	if lu.Company != "Acme" || lu.Role != "Engineer" {
		t.Fatalf("unexpected last use: %+v", lu)
	}
}

func TestServiceListForUserToleratesLastUseFailure(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if _, err := repo.Create(ctx, ParsedResume{
		UserID:        "google:117",
		ContentHash:   "abc123",
		RawText:       "text",
		ParsedContent: json.RawMessage(`{}`),
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc := &Service{Repo: repo, Apps: &fakeApps{err: errors.New("db down")}}

	items, lastUsed, err := svc.ListForUser(ctx, "google:117", 0, 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected listing to survive enrichment failure, got %d items", len(items))
	}
	if lastUsed != nil {
		t.Fatalf("expected nil last-use map, got %v", lastUsed)
	}
}
