package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetNextMigrationNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files []string
		want  int
	}{
		{name: "empty", want: 1},
		{name: "sequential", files: []string{"0001_orders.sql", "0002_index.sql"}, want: 3},
		{name: "ignores non sql", files: []string{"0001_orders.sql", "0009_notes.txt"}, want: 2},
		{name: "ignores unnumbered", files: []string{"orders.sql", "0004_cache.sql"}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, f), nil, 0o600); err != nil {
					t.Fatal(err)
				}
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if got := getNextMigrationNum(entries); got != tt.want {
				t.Errorf("getNextMigrationNum() = %d, want %d", got, tt.want)
			}
		})
	}
}
