package log

import "testing"

func TestSlogBridgeRoutesRecords(t *testing.T) {
	out := &captureOutput{}
	sl := Slog(NewLogger(WithLevel(InfoLevel), WithOutput(out)))

	sl.Debug("filtered out")
	sl.Info("delivered", "seq", 9)
	sl.Error("failed")

	if len(out.entries) != 2 {
		t.Fatalf("got %d entries", len(out.entries))
	}
	e := out.entries[0]
	if e.Level != InfoLevel || e.Message != "delivered" {
		t.Fatalf("entry %+v", e)
	}
	if len(e.Fields) != 1 || e.Fields[0].Key != "seq" {
		t.Fatalf("fields %+v", e.Fields)
	}
}

func TestSlogBridgeWithAttrs(t *testing.T) {
	out := &captureOutput{}
	sl := Slog(NewLogger(WithOutput(out))).With("component", "store")
	sl.Warn("slow commit")
	if len(out.entries) != 1 {
		t.Fatalf("got %d entries", len(out.entries))
	}
	fields := out.entries[0].Fields
	if len(fields) != 1 || fields[0].Key != "component" {
		t.Fatalf("fields %+v", fields)
	}
}
