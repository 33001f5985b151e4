package application

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newCompanyService(store *memoryStore) *CompanyService {
	return NewCompanyService(CompanyServiceConfig{
		Companies:     store,
		Users:         store,
		Hasher:        testHasher(),
		Certification: func() (string, error) { return "JOINME2345", nil },
		IDGenerator:   sequentialIDs("id"),
	})
}

func TestCompanyService_RegisterCompany(t *testing.T) {
	t.Run("creates the company and its administrator", func(t *testing.T) {
		store := newMemoryStore()
		svc := newCompanyService(store)

		got, err := svc.RegisterCompany(context.Background(), RegisterCompanyParams{
			Name:  "  Acme Trading Co.  ",
			Admin: UserInput{Email: "boss@acme.test", DisplayName: "Boss", Password: "password1", Role: RoleUser},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got.Company.Name != "Acme Trading Co." || got.Company.Slug != "acme-trading-co" {
			t.Fatalf("unexpected company %+v", got.Company)
		}
		if got.Company.Certification != "JOINME2345" {
			t.Fatalf("unexpected certification %q", got.Company.Certification)
		}
		if got.Admin.Role != RoleAdmin || got.Admin.CompanyID != got.Company.ID {
			t.Fatalf("expected admin in the new company, got %+v", got.Admin)
		}
	})

	t.Run("collects validation errors from company and admin", func(t *testing.T) {
		svc := newCompanyService(newMemoryStore())

		_, err := svc.RegisterCompany(context.Background(), RegisterCompanyParams{
			Name:  "",
			Admin: UserInput{Email: "bad"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "email", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("maps duplicate slugs", func(t *testing.T) {
		store := newMemoryStore()
		store.companies["c-0"] = Company{ID: "c-0", Slug: "acme"}
		svc := newCompanyService(store)

		_, err := svc.RegisterCompany(context.Background(), RegisterCompanyParams{
			Name:  "ACME",
			Admin: UserInput{Email: "boss@acme.test", DisplayName: "Boss", Password: "password1"},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestCompanyService_JoinCompany(t *testing.T) {
	store := newMemoryStore()
	store.companies["company-1"] = Company{ID: "company-1", Name: "Acme", Certification: "JOINME2345"}
	svc := newCompanyService(store)

	t.Run("joins with a valid code as a plain user", func(t *testing.T) {
		user, err := svc.JoinCompany(context.Background(), JoinCompanyParams{
			Certification: " joinme2345 ",
			Input:         UserInput{Email: "staff@acme.test", DisplayName: "Staff", Password: "password1", Role: RoleAdmin},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if user.CompanyID != "company-1" || user.Role != RoleUser {
			t.Fatalf("unexpected user %+v", user)
		}
	})

	t.Run("rejects unknown codes", func(t *testing.T) {
		_, err := svc.JoinCompany(context.Background(), JoinCompanyParams{
			Certification: "WRONG",
			Input:         UserInput{Email: "x@acme.test", DisplayName: "X", Password: "password1"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["certification"] == "" {
			t.Fatalf("expected certification validation error, got %v", err)
		}
	})
}

func TestCompanyService_CurrentCompany(t *testing.T) {
	store := newMemoryStore()
	store.companies["company-1"] = Company{ID: "company-1", Name: "Acme", Certification: "JOINME2345"}
	svc := newCompanyService(store)

	got, err := svc.CurrentCompany(context.Background(), admin)
	if err != nil || got.Certification != "JOINME2345" {
		t.Fatalf("administrators see the code, got %+v err=%v", got, err)
	}

	got, err = svc.CurrentCompany(context.Background(), alice)
	if err != nil || got.Certification != "" {
		t.Fatalf("employees must not see the code, got %+v err=%v", got, err)
	}
}

func TestNewCertificationCode(t *testing.T) {
	code, err := NewCertificationCode()
	if err != nil {
		t.Fatalf("NewCertificationCode returned error: %v", err)
	}
	if len(code) != certificationLength {
		t.Fatalf("expected %d characters, got %q", certificationLength, code)
	}
	for _, r := range code {
		if !strings.ContainsRune(certificationAlphabet, r) {
			t.Fatalf("unexpected character %q in %q", r, code)
		}
	}
}
