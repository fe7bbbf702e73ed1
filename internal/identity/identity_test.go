package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    domain.Identity
		wantOK  bool
	}{
		{
			name:    "rider",
			headers: map[string]string{HeaderUserID: "R1", HeaderUserEmail: "r1@example.com", HeaderUserRole: "rider"},
			want:    domain.Identity{ID: "R1", Email: "r1@example.com", Role: domain.RoleRider},
			wantOK:  true,
		},
		{
			name:    "role is case insensitive",
			headers: map[string]string{HeaderUserID: "A1", HeaderUserRole: " Admin "},
			want:    domain.Identity{ID: "A1", Role: domain.RoleAdmin},
			wantOK:  true,
		},
		{
			name:    "missing id",
			headers: map[string]string{HeaderUserRole: "customer"},
		},
		{
			name:    "unknown role",
			headers: map[string]string{HeaderUserID: "X1", HeaderUserRole: "superuser"},
		},
		{
			name: "no headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got, ok := FromRequest(req)

			if ok != tt.wantOK {
				t.Fatalf("expected ok %v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSetRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	want := domain.Identity{ID: "V1", Email: "v1@example.com", Role: domain.RoleVendor}

	Set(req.Header, want)
	got, ok := FromRequest(req)

	if !ok || got != want {
		t.Errorf("expected %+v, got %+v (ok=%v)", want, got, ok)
	}
}
