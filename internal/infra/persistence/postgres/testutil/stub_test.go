package testutil

import (
	"context"
	"strings"
	"testing"
)

const (
	ddlStmt    = `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload JSONB NOT NULL)`
	upsertStmt = `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`
	selectStmt = `SELECT bucket, payload FROM state`
)

func TestUpsertStoresPayloadPerBucket(t *testing.T) {
	db, conn := NewStubDB()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, ddlStmt); err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if _, err := db.ExecContext(ctx, upsertStmt, "applications", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := db.ExecContext(ctx, upsertStmt, "applications", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if got := string(conn.Buckets["applications"]); got != `{"a":2}` {
		t.Fatalf("payload %q", got)
	}
	if len(conn.Statements) != 3 {
		t.Fatalf("statements %v", conn.Statements)
	}
}

func TestSelectReturnsBucketsSorted(t *testing.T) {
	db, conn := NewStubDB()
	conn.Buckets["sysvars"] = []byte(`{}`)
	conn.Buckets["applications"] = []byte(`{}`)

	rows, err := db.QueryContext(context.Background(), selectStmt)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var buckets []string
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		buckets = append(buckets, bucket)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(buckets) != 2 || buckets[0] != "applications" || buckets[1] != "sysvars" {
		t.Fatalf("buckets %v", buckets)
	}
}

func TestRowsErrSurfacesAfterIteration(t *testing.T) {
	db, conn := NewStubDB()
	conn.Buckets["applications"] = []byte(`{}`)
	conn.RowsErr = context.DeadlineExceeded

	rows, err := db.QueryContext(context.Background(), selectStmt)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if rows.Err() == nil {
		t.Fatal("expected iteration error")
	}
}

func TestFailureKnobs(t *testing.T) {
	db, conn := NewStubDB()
	ctx := context.Background()

	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatal("expected ping failure")
	}
	conn.FailPing = false

	conn.FailBuckets = map[string]bool{"applications": true}
	if _, err := db.ExecContext(ctx, upsertStmt, "applications", []byte(`{}`)); err == nil {
		t.Fatal("expected upsert failure")
	}
	conn.FailBuckets = nil

	conn.FailBegin = true
	if _, err := db.BeginTx(ctx, nil); err == nil {
		t.Fatal("expected begin failure")
	}
	conn.FailBegin = false

	conn.FailCommit = true
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.Commit(); err == nil {
		t.Fatal("expected commit failure")
	}
}

func TestUnexpectedStatementsRejected(t *testing.T) {
	db, _ := NewStubDB()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `DROP TABLE state`); err == nil || !strings.Contains(err.Error(), "unexpected statement") {
		t.Fatalf("exec err %v", err)
	}
	if _, err := db.QueryContext(ctx, `SELECT 1`); err == nil || !strings.Contains(err.Error(), "unexpected query") {
		t.Fatalf("query err %v", err)
	}
}
