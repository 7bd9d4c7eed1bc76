package hooks

import "testing"

func TestFillNilReturnsDefault(t *testing.T) {
	if Fill(nil) != Default() {
		t.Fatal("Fill(nil) should return the shared default table")
	}
}

func TestFillBackfillsMissingFields(t *testing.T) {
	custom := &Table{
		Write: func(fd int, buf []byte) (int, error) { return len(buf), nil },
	}
	filled := Fill(custom)
	if filled.Write == nil || filled.Read == nil || filled.Flush == nil || filled.OnClear == nil {
		t.Fatal("Fill must backfill every nil field")
	}
	if IsDefault(filled) {
		t.Fatal("a table with a custom Write must not be reported as the default")
	}
}

func TestIsDefaultOnlyMatchesSharedInstance(t *testing.T) {
	if !IsDefault(Default()) {
		t.Fatal("Default() must report itself as the default table")
	}
	other := Fill(&Table{})
	if IsDefault(other) {
		t.Fatal("a freshly filled table is a distinct instance, not the shared default")
	}
}
