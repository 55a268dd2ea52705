package dedup

import "testing"

func TestHexHashFormat(t *testing.T) {
	h := HexHash([]byte("<html>page</html>"))
	if len(h) != 16 {
		t.Errorf("HexHash len = %d, want 16", len(h))
	}
	if h != HexHash([]byte("<html>page</html>")) {
		t.Error("одинаковое содержимое должно давать одинаковый отпечаток")
	}
	if h == HexHash([]byte("<html>other</html>")) {
		t.Error("разное содержимое не должно давать одинаковый отпечаток")
	}
}

func TestTrackerSeen(t *testing.T) {
	tr := NewTracker()
	h := HexHash([]byte("body"))

	if tr.Seen(h) {
		t.Error("первый показ отпечатка не должен считаться дублем")
	}
	if !tr.Seen(h) {
		t.Error("повторный показ отпечатка должен считаться дублем")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

// TestTrackerEmptyHash: пустой отпечаток не учитывается и не копится.
func TestTrackerEmptyHash(t *testing.T) {
	tr := NewTracker()
	if tr.Seen("") {
		t.Error("пустой отпечаток не должен считаться дублем")
	}
	if tr.Seen("") {
		t.Error("пустой отпечаток не должен запоминаться")
	}
	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0", tr.Len())
	}
}
