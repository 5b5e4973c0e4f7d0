package failfast

import (
	"errors"
	"strings"
	"testing"
)

// recovered runs fn and returns the recovered panic value as an error, or nil
func recovered(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		e, ok := r.(error)
		if !ok {
			t.Fatalf("Expected error type, got: %T", r)
		}
		err = e
	}()
	fn()
	return nil
}

func TestErr(t *testing.T) {
	if err := recovered(t, func() { Err(nil) }); err != nil {
		t.Errorf("Err(nil) panicked: %v", err)
	}

	sentinel := errors.New("test error")
	err := recovered(t, func() { Err(sentinel) })
	if err == nil {
		t.Fatal("Err(error) should panic")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("panic value should wrap the original error, got %v", err)
	}
}

func TestIf(t *testing.T) {
	if err := recovered(t, func() { If(true, "should not panic") }); err != nil {
		t.Errorf("If(true) panicked: %v", err)
	}

	err := recovered(t, func() { If(false, "limit %d exceeded", 5) })
	if err == nil {
		t.Fatal("If(false) should panic")
	}
	if err.Error() != "fail-fast: limit 5 exceeded" {
		t.Errorf("If(false) message = %q", err.Error())
	}
}

func TestNotNil(t *testing.T) {
	val := "test"
	var nilPtr *string
	var nilMap map[string]int
	var nilFunc func()
	var nilIface interface{}

	tests := []struct {
		name      string
		v         interface{}
		wantPanic bool
	}{
		{"pointer", &val, false},
		{"value", 42, false},
		{"nil pointer", nilPtr, true},
		{"nil map", nilMap, true},
		{"nil func", nilFunc, true},
		{"nil interface", nilIface, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recovered(t, func() { NotNil(tt.v, "v") })
			if (err != nil) != tt.wantPanic {
				t.Fatalf("NotNil() panic = %v, wantPanic %v", err, tt.wantPanic)
			}
			if err != nil && !strings.Contains(err.Error(), "v is nil") {
				t.Errorf("NotNil() message = %q", err.Error())
			}
		})
	}
}
