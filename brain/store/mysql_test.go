package store

import (
	"os"
	"testing"
)

// TestMySQLStore_Contract runs the shared store contract against a real
// MySQL instance. Set BRAINCYCLE_MYSQL_TEST_DSN to enable, e.g.:
//
//	BRAINCYCLE_MYSQL_TEST_DSN="user:pass@tcp(localhost:3306)/braincycle_test" go test ./brain/store/
func TestMySQLStore_Contract(t *testing.T) {
	dsn := os.Getenv("BRAINCYCLE_MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("BRAINCYCLE_MYSQL_TEST_DSN not set; skipping MySQL integration test")
	}

	st, err := NewMySQLStore[analysisState](dsn)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	runStoreContract(t, st)
}
