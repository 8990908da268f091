package tenancy

import (
	"context"
	"testing"
)

func TestOrgIDRoundTrip(t *testing.T) {
	ctx := WithOrgID(context.Background(), "org-1")
	got, ok := OrgIDFromContext(ctx)
	if !ok || got != "org-1" {
		t.Fatalf("expected org-1, got %q (ok=%v)", got, ok)
	}
}

func TestMissingAndEmptyValues(t *testing.T) {
	if _, ok := OrgIDFromContext(context.Background()); ok {
		t.Fatalf("expected no org id")
	}
	if _, ok := StaffIDFromContext(WithStaffID(context.Background(), "")); ok {
		t.Fatalf("expected empty staff id to be treated as missing")
	}
	ctx := WithStaffID(WithOrgID(context.Background(), "org-1"), "staff-9")
	if id, ok := StaffIDFromContext(ctx); !ok || id != "staff-9" {
		t.Fatalf("expected staff-9, got %q", id)
	}
}
