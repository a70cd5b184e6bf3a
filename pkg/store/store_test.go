package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cm.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestAddAndGet(t *testing.T) {
	s := openTestStore(t)

	rec := &ConnectionRecord{
		Alias:      "web1",
		Protocol:   "ssh",
		HostOrIP:   "10.0.0.5",
		Port:       "2222",
		Username:   "admin",
		Password:   "ciphertext-blob",
		SSHKeyPath: "~/.ssh/id_rsa",
		Domain:     "",
		Resolution: "",
		Tag:        "prod",
		Extras:     map[string]string{"jump": "bastion", "ttl": "30"},
	}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("expected store-assigned id")
	}

	got, err := s.Get("web1")
	if err != nil {
		t.Fatalf("Get by alias failed: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("expected id %d, got %d", rec.ID, got.ID)
	}
	if got.Alias != rec.Alias || got.Protocol != rec.Protocol || got.HostOrIP != rec.HostOrIP ||
		got.Port != rec.Port || got.Username != rec.Username || got.Password != rec.Password ||
		got.SSHKeyPath != rec.SSHKeyPath || got.Tag != rec.Tag {
		t.Errorf("record mismatch: got %+v, want %+v", got, rec)
	}
	if len(got.Extras) != 2 || got.Extras["jump"] != "bastion" || got.Extras["ttl"] != "30" {
		t.Errorf("extras did not round-trip: %v", got.Extras)
	}
}

func TestGetByID(t *testing.T) {
	s := openTestStore(t)

	rec := &ConnectionRecord{Alias: "db1", Protocol: "ssh", HostOrIP: "db.internal"}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := s.Get("1")
	if err != nil {
		t.Fatalf("Get by id failed: %v", err)
	}
	if got.Alias != "db1" {
		t.Errorf("expected db1, got %q", got.Alias)
	}

	if _, err := s.Get("999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get("nosuch"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateAliasLeavesStoreUnchanged(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(&ConnectionRecord{Alias: "web1", Protocol: "http", HostOrIP: "a"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	err := s.Add(&ConnectionRecord{Alias: "web1", Protocol: "ssh", HostOrIP: "b"})
	if !errors.Is(err, ErrDuplicateAlias) {
		t.Fatalf("expected ErrDuplicateAlias, got %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record after duplicate add, got %d", count)
	}
}

func TestAliasValidation(t *testing.T) {
	s := openTestStore(t)

	for _, alias := range []string{"", "   ", "12345"} {
		err := s.Add(&ConnectionRecord{Alias: alias, Protocol: "ssh", HostOrIP: "h"})
		if !errors.Is(err, ErrInvalidAlias) {
			t.Errorf("Add(%q): expected ErrInvalidAlias, got %v", alias, err)
		}
	}

	// Mixed alphanumeric is fine.
	if err := s.Add(&ConnectionRecord{Alias: "web42", Protocol: "ssh", HostOrIP: "h"}); err != nil {
		t.Errorf("Add(web42) failed: %v", err)
	}
}

func TestPartialUpdate(t *testing.T) {
	s := openTestStore(t)

	rec := &ConnectionRecord{
		Alias: "app1", Protocol: "rdp", HostOrIP: "10.1.1.1",
		Username: "svc", Domain: "CORP", Tag: "lab",
	}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Update("app1", Fields{HostOrIP: strPtr("10.1.1.2")}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.Get("app1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.HostOrIP != "10.1.1.2" {
		t.Errorf("expected updated host, got %q", got.HostOrIP)
	}
	// Untouched fields survive.
	if got.Username != "svc" || got.Domain != "CORP" || got.Tag != "lab" {
		t.Errorf("partial update clobbered fields: %+v", got)
	}
}

func TestUpdateRenameConflicts(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(&ConnectionRecord{Alias: "one", Protocol: "ssh", HostOrIP: "a"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(&ConnectionRecord{Alias: "two", Protocol: "ssh", HostOrIP: "b"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := s.Update("two", Fields{Alias: strPtr("one")})
	if !errors.Is(err, ErrDuplicateAlias) {
		t.Errorf("expected ErrDuplicateAlias on rename, got %v", err)
	}

	// Re-setting a record's own alias is not a conflict.
	if err := s.Update("two", Fields{Alias: strPtr("two"), Port: strPtr("22")}); err != nil {
		t.Errorf("self-rename failed: %v", err)
	}

	if err := s.Update("ghost", Fields{Port: strPtr("22")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(&ConnectionRecord{Alias: "web1", Protocol: "http", HostOrIP: "h"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Delete("web1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// Deleting again, and deleting something that never existed, succeed.
	if err := s.Delete("web1"); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
	if err := s.Delete("nothing"); err != nil {
		t.Errorf("Delete of missing record failed: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store, got %d records", count)
	}
}

func TestDeleteByID(t *testing.T) {
	s := openTestStore(t)

	rec := &ConnectionRecord{Alias: "web1", Protocol: "http", HostOrIP: "h"}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Delete("1"); err != nil {
		t.Fatalf("Delete by id failed: %v", err)
	}
	if _, err := s.Get("web1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected record gone, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(&ConnectionRecord{Alias: "web1", Protocol: "http", HostOrIP: "web.example.com", Tag: "prod"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(&ConnectionRecord{Alias: "db1", Protocol: "ssh", HostOrIP: "db.example.com", Tag: "prod"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := s.Search("prod")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("search(prod): expected 2 results, got %d", len(got))
	}

	got, err = s.Search("web")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Alias != "web1" {
		t.Fatalf("search(web): expected only web1, got %+v", got)
	}

	// Case-insensitive.
	got, err = s.Search("WEB")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].Alias != "web1" {
		t.Fatalf("search(WEB): expected only web1, got %+v", got)
	}
}

func TestSummaryOrderedByID(t *testing.T) {
	s := openTestStore(t)

	for _, alias := range []string{"charlie", "alpha", "bravo"} {
		if err := s.Add(&ConnectionRecord{Alias: alias, Protocol: "ssh", HostOrIP: "h"}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	sums, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(sums))
	}
	for i := 1; i < len(sums); i++ {
		if sums[i].ID <= sums[i-1].ID {
			t.Errorf("summaries not ordered by id: %+v", sums)
		}
	}
	if sums[0].Alias != "charlie" {
		t.Errorf("expected insertion order by id, got %+v", sums)
	}
}

func TestAliasExists(t *testing.T) {
	s := openTestStore(t)

	if err := s.Add(&ConnectionRecord{Alias: "web1", Protocol: "http", HostOrIP: "h"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ok, err := s.AliasExists("web1")
	if err != nil {
		t.Fatalf("AliasExists failed: %v", err)
	}
	if !ok {
		t.Error("expected web1 to exist")
	}
	ok, err = s.AliasExists("other")
	if err != nil {
		t.Fatalf("AliasExists failed: %v", err)
	}
	if ok {
		t.Error("did not expect other to exist")
	}
}

func TestExtrasCanonicalRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rec := &ConnectionRecord{
		Alias: "x1", Protocol: "ssh", HostOrIP: "h",
		Extras: map[string]string{"zeta": "1", "alpha": "2", "mid": "3"},
	}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	first, err := s.Get("x1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Write back the decoded extras unchanged and read again: the stored
	// encoding must be identical (canonical form).
	if err := s.Update("x1", Fields{Extras: first.Extras}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	second, err := s.Get("x1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(second.Extras) != 3 || second.Extras["zeta"] != "1" || second.Extras["alpha"] != "2" || second.Extras["mid"] != "3" {
		t.Errorf("extras did not round-trip exactly: %v", second.Extras)
	}
}
