package domain

import "testing"

func TestListFilter_Normalize(t *testing.T) {
	f := ListFilter{Limit: 10000, Offset: -3}.Normalize()
	if f.Limit != MaxLimit || f.Offset != 0 || f.OrderBy != "-created_at" {
		t.Errorf("Normalize() = %+v", f)
	}
	if got := (ListFilter{}).Normalize().Limit; got != DefaultLimit {
		t.Errorf("default limit = %d", got)
	}
}

func TestListFilter_OrderClause(t *testing.T) {
	allowed := map[string]bool{"created_at": true, "year": true}
	tests := []struct {
		order string
		want  string
	}{
		{"-created_at", "created_at DESC"},
		{"year", "year ASC"},
		{"password_hash", "id DESC"},
		{"-year; DROP TABLE users", "id DESC"},
	}
	for _, tt := range tests {
		got := ListFilter{OrderBy: tt.order}.OrderClause(allowed, "id DESC")
		if got != tt.want {
			t.Errorf("OrderClause(%q) = %q, want %q", tt.order, got, tt.want)
		}
	}
}
