// Package fieldwatch instruments field assignments and container mutations
// so a running program can answer "what was ever assigned to this field"
// and "what was ever added to or removed from this container" without a
// debugger attached.
//
// # Quick Start
//
// The fieldwatch CLI takes Go source files, not package patterns, and wires
// the fieldwatch import into every file it instruments:
//
//	$ fieldwatch instrument main.go
//	$ fieldwatch run main.go
//
// For manual instrumentation or direct use of the built-in containers:
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/kolkov/fieldwatch"
//		"github.com/kolkov/fieldwatch/container"
//	)
//
//	type Cart struct {
//		Items *container.List[string]
//	}
//
//	func main() {
//		fieldwatch.EmulateFieldWatchpoint("Cart", "Items", "*container.List[string]")
//
//		c := &Cart{}
//		items := container.NewList[string]()
//		fieldwatch.TransformAndSaveFieldWrite(items, c, "Cart", "Items", false)
//		c.Items = items
//
//		c.Items.Add("widget")
//		c.Items.Remove("widget")
//
//		for _, mod := range fieldwatch.GetContainerModifications(c.Items) {
//			fmt.Println(mod.IsAdd(), mod.Element())
//		}
//	}
//
// # How It Works
//
// The fieldwatch instrument command rewrites writes to configured fields so
// they first call TransformAndSaveFieldWrite. Container mutator calls are
// not rewritten; the container package's methods report their own
// modifications:
//
//	// Original code:
//	c.Items = items
//
//	// Instrumented code:
//	fieldwatch.TransformAndSaveFieldWrite(items, c, "Cart", "Items", false)
//	c.Items = items
//
// A container's modifications are attributed back to whichever tracked
// field introduced it; a container is only recorded while at least one of
// its introducing fields is enabled.
//
// # Compatibility
//
// Go version: 1.24 or later. No cgo requirement.
package fieldwatch
