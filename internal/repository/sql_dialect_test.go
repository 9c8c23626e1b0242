package repository

import "testing"

func TestContainsFoldSQLite(t *testing.T) {
	expr := containsFoldFor(dialectSQLite, "name", " Aguacate ")
	if expr.SQL != `LOWER(?) LIKE ? ESCAPE '\'` {
		t.Fatalf("unexpected sqlite condition: %s", expr.SQL)
	}
	if expr.Vars[1] != "%aguacate%" {
		t.Fatalf("unexpected sqlite arg: %v", expr.Vars[1])
	}
}

func TestContainsFoldPostgresEscapesWildcards(t *testing.T) {
	expr := containsFoldFor(dialectPostgres, "name", `50%_off\`)
	if expr.SQL != "? ILIKE ?" {
		t.Fatalf("unexpected postgres condition: %s", expr.SQL)
	}
	if expr.Vars[1] != `%50\%\_off\\%` {
		t.Fatalf("unexpected postgres arg: %v", expr.Vars[1])
	}
}

func TestDialectOfDefaultsToSQLite(t *testing.T) {
	if got := dialectOf(nil); got != dialectSQLite {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
	db := openRepositoryTestDB(t)
	if got := dialectOf(db); got != dialectSQLite {
		t.Fatalf("glebarez dialect want sqlite got %s", got)
	}
}
