package assert

import "fmt"

// NotNil panics if value is nil, it is meant for catching programmer errors in constructors.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}
