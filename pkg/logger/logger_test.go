package logger

import "testing"

func TestNewWithValidLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "warning", "error", "fatal", "disabled"} {
		if _, err := New(&Config{Level: level}); err != nil {
			t.Errorf("New with level %q failed: %v", level, err)
		}
	}
}

func TestNewWithInvalidLevel(t *testing.T) {
	if _, err := New(&Config{Level: "verbose"}); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestGetLoggerNeverNil(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("GetLogger must always return a logger")
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewNop().(*zerologLogger)
	child := parent.WithField("comic", 42).(*zerologLogger)

	if len(parent.fields) != 0 {
		t.Error("WithField must not mutate the parent logger")
	}
	if child.fields["comic"] != 42 {
		t.Error("child logger is missing the added field")
	}
}

func TestWithErrorNil(t *testing.T) {
	l := NewNop()
	if l.WithError(nil) != l {
		t.Error("WithError(nil) should return the same logger")
	}
}
