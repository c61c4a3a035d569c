package store

import (
	"errors"
	"testing"
)

func TestOpen(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	// Verify tables exist by querying them
	var name string
	err = st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	if err != nil {
		t.Fatalf("kv table not created: %v", err)
	}
	if name != "kv" {
		t.Errorf("expected table name 'kv', got %q", name)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	in := map[string]int{"2025-03-01": 7, "2025-03-02": 3}
	if err := st.Set(KeyMinutes, in); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	out := map[string]int{}
	if !st.Get(KeyMinutes, &out) {
		t.Fatal("Get reported not found after Set")
	}
	if out["2025-03-01"] != 7 || out["2025-03-02"] != 3 {
		t.Errorf("round trip mismatch: %v", out)
	}
}

func TestGetMissingKey(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	out := map[string]int{"sentinel": 1}
	if st.Get("brief.nonexistent", &out) {
		t.Error("Get reported found for missing key")
	}
	if out["sentinel"] != 1 {
		t.Error("Get modified dest for missing key")
	}
}

func TestGetCorruptValue(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if err := st.SetRaw(KeyStreak, "{not json"); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	out := struct {
		Streak int `json:"streak"`
	}{Streak: 42}
	if st.Get(KeyStreak, &out) {
		t.Error("Get reported found for corrupt value")
	}
	if out.Streak != 42 {
		t.Error("Get modified dest for corrupt value")
	}
}

func TestSetOverwrites(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	if err := st.Set(KeyMastery, map[string]int{"Local": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set(KeyMastery, map[string]int{"Local": 2}); err != nil {
		t.Fatalf("second Set failed: %v", err)
	}

	out := map[string]int{}
	if !st.Get(KeyMastery, &out) {
		t.Fatal("Get reported not found")
	}
	if out["Local"] != 2 {
		t.Errorf("expected overwritten value 2, got %d", out["Local"])
	}
}

func TestSetAfterCloseSurfacesWriteError(t *testing.T) {
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	st.Close()

	err = st.Set(KeyMinutes, map[string]int{"2025-03-01": 1})
	if err == nil {
		t.Fatal("Set on closed store did not fail")
	}
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("expected ErrWriteFailed, got %v", err)
	}
}
