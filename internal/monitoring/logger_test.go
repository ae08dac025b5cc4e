package monitoring

import "testing"

func TestSetLoggerReplacesAndRestores(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("hello %s", "world")
	if !called {
		t.Error("custom logger was not called")
	}
}

func TestSetLoggerNilInstallsNoOp(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})

	SetLogger(nil)
	Logf("should go nowhere")
	if called {
		t.Error("no-op logger invoked the previous callback")
	}
}

func TestLogfDefaultIsUsable(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must never be nil")
	}
}
