package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"cartline/internal/infrastructure/mysql"
)

// SetupTestDB abre la BD de prueba y aplica el schema.
// Espera un MySQL en localhost:3306 con una base llamada 'cartline_test'.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "root:@tcp(localhost:3306)/cartline_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	if err := mysql.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	CleanTables(t, db)
	return db
}

// CleanTables vacia las tablas en orden de dependencias.
func CleanTables(t *testing.T, db *sql.DB) {
	t.Helper()

	// user.current_order_id references order, so it is cleared first
	if _, err := db.Exec("UPDATE `user` SET current_order_id = NULL, is_ordering = 0"); err != nil {
		t.Logf("failed to reset user cart state: %v", err)
	}

	for _, table := range []string{"item", "`order`", "product", "`user`"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// CleanupTestDB limpia la BD de prueba y cierra la conexion.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}
	CleanTables(t, db)
	db.Close()
}

func InsertUser(t *testing.T, db *sql.DB, username string) uint {
	t.Helper()

	res, err := db.Exec("INSERT INTO `user` (username, password_hash, is_ordering) VALUES (?, 'x', 0)", username)
	if err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read user id: %v", err)
	}
	return uint(id)
}

func InsertProduct(t *testing.T, db *sql.DB, name string, cost int64) uint {
	t.Helper()

	res, err := db.Exec("INSERT INTO product (item_id, name, name_eng, cost, effect, text, sprite, category) VALUES (1, ?, ?, ?, '', '', '', 'medicine')", name, name, cost)
	if err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read product id: %v", err)
	}
	return uint(id)
}
