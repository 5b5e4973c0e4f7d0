// Package failfast turns programmer errors into immediate panics.
// It is meant for wiring and constructor invariants, never for request input.
package failfast

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// Err panics if err != nil, with a stack trace attached
func Err(err error) {
	if err != nil {
		panic(fmt.Errorf("fail-fast: %w\n%s", err, debug.Stack()))
	}
}

// If panics if condition is false
func If(condition bool, message string, args ...interface{}) {
	if !condition {
		panic(fmt.Errorf("fail-fast: "+message, args...))
	}
}

// NotNil panics if v is nil, including typed nils of nillable kinds
func NotNil(v interface{}, name string) {
	if v == nil {
		panic(fmt.Errorf("fail-fast: %s is nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface, reflect.Slice:
		if rv.IsNil() {
			panic(fmt.Errorf("fail-fast: %s is nil", name))
		}
	}
}
