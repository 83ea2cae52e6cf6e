package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"

	"checkout-service/internal/models"
)

func undefinedColumn() error {
	return &pq.Error{Code: "42703", Message: "column \"drop_lat\" does not exist"}
}

func testOrder() *models.Order {
	return &models.Order{UserID: "u1", StoreID: "s1", CustomerName: "A", Phone: "99", AddressLine1: "12 Lane", Subtotal: 100, Total: 135, Status: "placed"}
}

func TestInsertLadderFirstAttemptWins(t *testing.T) {
	calls := 0
	ins := func(ctx context.Context, query string, args []interface{}) (int, error) {
		calls++
		return 42, nil
	}
	id, err := runInsertLadder(context.Background(), ins, testOrder())
	if err != nil || id != 42 {
		t.Fatalf("id=%d err=%v", id, err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestInsertLadderRetriesOnSchemaMismatch(t *testing.T) {
	var argCounts []int
	ins := func(ctx context.Context, query string, args []interface{}) (int, error) {
		argCounts = append(argCounts, len(args))
		if len(argCounts) < 3 {
			return 0, undefinedColumn()
		}
		return 7, nil
	}
	id, err := runInsertLadder(context.Background(), ins, testOrder())
	if err != nil || id != 7 {
		t.Fatalf("id=%d err=%v", id, err)
	}
	if len(argCounts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(argCounts))
	}
	// each rung carries a strictly smaller payload
	for i := 1; i < len(argCounts); i++ {
		if argCounts[i] >= argCounts[i-1] {
			t.Fatalf("attempt %d should shrink the payload: %v", i, argCounts)
		}
	}
}

func TestInsertLadderStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	ins := func(ctx context.Context, query string, args []interface{}) (int, error) {
		calls++
		return 0, boom
	}
	_, err := runInsertLadder(context.Background(), ins, testOrder())
	if !errors.Is(err, boom) {
		t.Fatalf("expected the transport error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-schema errors must not be retried, got %d attempts", calls)
	}
}

func TestInsertLadderExhausted(t *testing.T) {
	ins := func(ctx context.Context, query string, args []interface{}) (int, error) {
		return 0, undefinedColumn()
	}
	_, err := runInsertLadder(context.Background(), ins, testOrder())
	if err == nil {
		t.Fatal("expected the last schema error after exhausting the ladder")
	}
	if !isSchemaMismatch(err) {
		t.Fatalf("expected a schema-mismatch error, got %v", err)
	}
}

func TestIsSchemaMismatch(t *testing.T) {
	if isSchemaMismatch(errors.New("plain")) {
		t.Fatal("plain errors are not schema mismatches")
	}
	if isSchemaMismatch(&pq.Error{Code: "23505"}) {
		t.Fatal("unique violations are not schema mismatches")
	}
	for _, code := range []pq.ErrorCode{"42703", "42P01", "42804"} {
		if !isSchemaMismatch(&pq.Error{Code: code}) {
			t.Fatalf("code %s should be a schema mismatch", code)
		}
	}
}
