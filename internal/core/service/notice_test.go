package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/minimal/storefront/internal/core/domain"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		kind NoticeKind
	}{
		{nil, NoticeNone},
		{domain.ErrUnauthenticated, NoticeUnauthenticated},
		{fmt.Errorf("delete product: %w", domain.ErrUnauthorized), NoticeUnauthorized},
		{fmt.Errorf("get cart: %w", domain.ErrNotFound), NoticeNotFound},
		{fmt.Errorf("%w: address is required", domain.ErrValidation), NoticeValidation},
		{fmt.Errorf("place order: %w", domain.ErrTransport), NoticeTransport},
		{errors.New("boom"), NoticeInternal},
	}
	for _, tc := range cases {
		if got := Describe(tc.err, discardLogger); got.Kind != tc.kind {
			t.Errorf("Describe(%v) kind = %q, want %q", tc.err, got.Kind, tc.kind)
		}
	}
}

func TestDescribe_ValidationKeepsDetail(t *testing.T) {
	n := Describe(fmt.Errorf("%w: address is required", domain.ErrValidation), discardLogger)
	if n.Message != "address is required" {
		t.Fatalf("unexpected message %q", n.Message)
	}
}
