package company

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func seedCompany(t *testing.T, repo *fakeRepo, email, shortName string) *Company {
	t.Helper()

	f := sampleFields()
	f.Email = email
	f.ShortName = shortName
	saved, err := repo.Save(context.Background(), newCompany(f, uuid.New(), fixedNow))
	if err != nil {
		t.Fatalf("seed %s/%s: %v", email, shortName, err)
	}
	return saved
}

func TestUniquenessGuard_Check(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	first := seedCompany(t, repo, "first@example.com", "F1")
	second := seedCompany(t, repo, "second@example.com", "F2")
	guard := NewUniquenessGuard(repo)

	tests := []struct {
		name      string
		email     string
		shortName string
		excludeID int64
		want      error
	}{
		{name: "free values on create", email: "new@example.com", shortName: "NEW", want: nil},
		{name: "email taken on create", email: "first@example.com", shortName: "NEW", want: ErrDuplicateEmail},
		{name: "short name taken on create", email: "new@example.com", shortName: "F1", want: ErrDuplicateShortName},
		{name: "email reported before short name", email: "first@example.com", shortName: "F2", want: ErrDuplicateEmail},
		{name: "own values on update", email: "first@example.com", shortName: "F1", excludeID: first.ID(), want: nil},
		{name: "other email on update", email: "second@example.com", shortName: "F1", excludeID: first.ID(), want: ErrDuplicateEmail},
		{name: "other short name on update", email: "second@example.com", shortName: "F1", excludeID: second.ID(), want: ErrDuplicateShortName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(context.Background(), tt.email, tt.shortName, tt.excludeID)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUniquenessGuard_DeletedCompanyKeepsIdentifiers(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	deleted := seedCompany(t, repo, "gone@example.com", "GONE")
	if err := deleted.SoftDelete(uuid.New(), fixedNow); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if _, err := repo.Save(context.Background(), deleted); err != nil {
		t.Fatalf("save deleted: %v", err)
	}

	guard := NewUniquenessGuard(repo)
	if err := guard.Check(context.Background(), "gone@example.com", "OTHER", 0); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if err := guard.Check(context.Background(), "other@example.com", "GONE", 0); !errors.Is(err, ErrDuplicateShortName) {
		t.Fatalf("expected ErrDuplicateShortName, got %v", err)
	}
}

func TestUniquenessGuard_LookupFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	boom := errors.New("connection reset")
	repo.findErr = boom

	err := NewUniquenessGuard(repo).Check(context.Background(), "a@b.com", "AB", 0)

	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
