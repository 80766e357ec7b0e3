package session

import (
	"errors"
	"testing"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantErr    bool
		wantRole   string
		wantLogged bool
	}{
		{
			name:       "well-formed record",
			data:       `{"role":"Admin","isLoggedIn":true}`,
			wantRole:   "Admin",
			wantLogged: true,
		},
		{
			name:       "extra profile fields are tolerated",
			data:       `{"role":"Student","isLoggedIn":false,"name":"Ada","regNo":"S-104"}`,
			wantRole:   "Student",
			wantLogged: false,
		},
		{
			name:    "not JSON",
			data:    `not json at all`,
			wantErr: true,
		},
		{
			name:    "missing role",
			data:    `{"isLoggedIn":true}`,
			wantErr: true,
		},
		{
			name:    "missing isLoggedIn",
			data:    `{"role":"Admin"}`,
			wantErr: true,
		},
		{
			name:    "wrong type for isLoggedIn",
			data:    `{"role":"Admin","isLoggedIn":"yes"}`,
			wantErr: true,
		},
		{
			name:    "JSON array",
			data:    `["role","isLoggedIn"]`,
			wantErr: true,
		},
		{
			name:    "empty input",
			data:    ``,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRecord(%q) expected error, got %+v", tt.data, rec)
				}
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("ParseRecord(%q) error = %v, want ErrMalformedRecord", tt.data, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecord(%q) unexpected error: %v", tt.data, err)
			}
			if rec.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", rec.Role, tt.wantRole)
			}
			if rec.IsLoggedIn != tt.wantLogged {
				t.Errorf("IsLoggedIn = %v, want %v", rec.IsLoggedIn, tt.wantLogged)
			}
			if string(rec.Raw) != tt.data {
				t.Errorf("Raw = %q, want verbatim input %q", rec.Raw, tt.data)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	allowed := NewRoleSet("student", "lecturer")

	tests := []struct {
		name    string
		records map[string][]byte
		allowed RoleSet
		want    bool
		wantNS  string
	}{
		{
			name:    "empty store denies",
			records: map[string][]byte{},
			allowed: allowed,
			want:    false,
		},
		{
			name: "matching role authorizes",
			records: map[string][]byte{
				KeyStudent: []byte(`{"role":"Student","isLoggedIn":true}`),
			},
			allowed: allowed,
			want:    true,
			wantNS:  KeyStudent,
		},
		{
			name: "role match is case-insensitive",
			records: map[string][]byte{
				KeyLecturer: []byte(`{"role":"LECTURER","isLoggedIn":true}`),
			},
			allowed: allowed,
			want:    true,
			wantNS:  KeyLecturer,
		},
		{
			name: "logged-out record denies",
			records: map[string][]byte{
				KeyStudent: []byte(`{"role":"Student","isLoggedIn":false}`),
			},
			allowed: allowed,
			want:    false,
		},
		{
			name: "role outside allowed set denies",
			records: map[string][]byte{
				KeyAdmin: []byte(`{"role":"Admin","isLoggedIn":true}`),
			},
			allowed: allowed,
			want:    false,
		},
		{
			name: "OR across namespaces: stale logged-out record is irrelevant",
			records: map[string][]byte{
				KeyStudent: []byte(`{"role":"Student","isLoggedIn":false}`),
				KeyAdmin:   []byte(`{"role":"Admin","isLoggedIn":true}`),
			},
			allowed: NewRoleSet("admin"),
			want:    true,
			wantNS:  KeyAdmin,
		},
		{
			name: "malformed record is skipped, not fatal",
			records: map[string][]byte{
				KeyStudent:  []byte(`{{{not json`),
				KeyLecturer: []byte(`{"role":"Lecturer","isLoggedIn":true}`),
			},
			allowed: allowed,
			want:    true,
			wantNS:  KeyLecturer,
		},
		{
			name: "all three malformed denies cleanly",
			records: map[string][]byte{
				KeyStudent:  []byte(`garbage`),
				KeyLecturer: []byte(`[1,2]`),
				KeyAdmin:    []byte(`{"role":true,"isLoggedIn":1}`),
			},
			allowed: allowed,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.records, Keys, tt.allowed)
			if got.Authorized != tt.want {
				t.Errorf("Evaluate() authorized = %v, want %v", got.Authorized, tt.want)
			}
			if tt.want && got.Namespace != tt.wantNS {
				t.Errorf("Evaluate() namespace = %q, want %q", got.Namespace, tt.wantNS)
			}

			// Same store state must yield the same decision
			again := Evaluate(tt.records, Keys, tt.allowed)
			if again != got {
				t.Errorf("Evaluate() not idempotent: %+v then %+v", got, again)
			}
		})
	}
}
