package db

import (
	"sort"
	"strings"
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}

	names := make([]string, 0, len(migrations))
	for _, m := range migrations {
		if !strings.HasSuffix(m.name, ".sql") {
			t.Errorf("unexpected migration name %q", m.name)
		}
		if m.content == "" {
			t.Errorf("migration %s has no content", m.name)
		}
		if len(m.hash) != 64 {
			t.Errorf("migration %s: hash %q is not sha256 hex", m.name, m.hash)
		}
		names = append(names, m.name)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("migrations not in lexical order: %v", names)
	}

	if migrations[0].name != "0001_init.sql" {
		t.Errorf("first migration: %s", migrations[0].name)
	}
	if !strings.Contains(migrations[0].content, "CREATE TABLE IF NOT EXISTS ssh_events") {
		t.Error("init migration does not create ssh_events")
	}
}
