package roster

import "testing"

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestOpenPostgresFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "roster_test")

	// sql.Open is lazy: the handle is built from the env-derived DSN without
	// dialing, so no server is needed here
	db, err := OpenPostgresFromEnv()
	if err != nil {
		t.Fatalf("OpenPostgresFromEnv() error = %v", err)
	}
	db.Close()
}
