package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/xid"

	"github.com/sakif/linkup/internal/apperror"
)

func TestSameUser(t *testing.T) {
	id := xid.New().String()
	other := xid.New().String()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", id, id, true},
		{"different ids", id, other, false},
		{"upper-cased rendering", id, strings.ToUpper(id), true},
		{"surrounding whitespace", "  " + id + "\n", id, true},
		{"empty subject", "", id, false},
		{"empty owner", id, "", false},
		{"both empty", "", "", false},
		{"non-xid exact match", "user-1", "user-1", true},
		{"non-xid mismatch", "user-1", "user-2", false},
		{"xid vs non-xid", id, "user-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameUser(tt.a, tt.b); got != tt.want {
				t.Errorf("SameUser(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCheckOwnership(t *testing.T) {
	owner := xid.New().String()

	if err := CheckOwnership(owner, owner); err != nil {
		t.Errorf("CheckOwnership(owner, owner) = %v, want nil", err)
	}

	err := CheckOwnership(xid.New().String(), owner)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("CheckOwnership(stranger, owner) = %v, want ErrForbidden", err)
	}
}
