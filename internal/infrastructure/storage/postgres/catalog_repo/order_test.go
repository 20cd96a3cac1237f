package catalog_repo

import (
	"testing"
)

func TestParseOrderBy(t *testing.T) {
	repo := NewBaseRepo[any](nil, "test_table", []string{"id", "code", "name", "is_active"}, func() any { return nil })

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "empty defaults to name", orderBy: "", want: "name ASC"},
		{name: "plain field", orderBy: "code", want: "code ASC"},
		{name: "desc prefix", orderBy: "-code", want: "code DESC"},
		{name: "explicit asc prefix", orderBy: "+name", want: "name ASC"},
		{name: "extra column from select list", orderBy: "is_active", want: "is_active ASC"},
		{name: "unknown field rejected", orderBy: "password", wantErr: true},
		{name: "injection rejected", orderBy: "name; DROP TABLE test_table", wantErr: true},
		{name: "bare minus rejected", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOrderBy(%q) expected error, got %q", tt.orderBy, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy(%q) failed: %v", tt.orderBy, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q)\nwant: %s\ngot:  %s", tt.orderBy, tt.want, got)
			}
		})
	}
}
