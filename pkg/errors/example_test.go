package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
)

// Example demonstrates basic error creation with context details.
func Example() {
	err := errors.New(errors.ErrorTypeLookup, "profile \"ci\" is not defined").
		WithDetail("file", "config.ini")

	fmt.Println(err.Error())

	// Output:
	// lookup: profile "ci" is not defined
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(fs.ErrNotExist, errors.ErrorTypeFile, "failed to read config.ini")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	if stderrors.Is(err, fs.ErrNotExist) {
		fmt.Println("Cause is preserved")
	}

	// Output:
	// This is a file error
	// Cause is preserved
}

// ExampleIsType demonstrates branching on error categories.
func ExampleIsType() {
	err := errors.Newf(errors.ErrorTypeNotFound, "module %s not found", "services/xyz")

	fmt.Println(errors.IsType(err, errors.ErrorTypeNotFound))
	fmt.Println(errors.IsType(err, errors.ErrorTypeImport))

	// Output:
	// true
	// false
}
