//go:build property

package watcher

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCoalesceProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	genEvents := gen.SliceOf(gen.Struct(reflect.TypeOf(ChangeEvent{}), map[string]gopter.Gen{
		"Path": gen.OneConstOf("navigation.yml", ".docnav.yml", "docs/pages/index.mdx"),
		"Size": gen.Int64Range(0, 1000),
	}))

	properties.Property("one event per path, the last one", prop.ForAll(
		func(events []ChangeEvent) bool {
			out := Coalesce(events)
			last := make(map[string]ChangeEvent)
			for _, e := range events {
				last[e.Path] = e
			}
			if len(out) != len(last) {
				return false
			}
			for i, e := range out {
				if i > 0 && out[i-1].Path >= e.Path {
					return false
				}
				if last[e.Path] != e {
					return false
				}
			}
			return true
		},
		genEvents,
	))

	properties.TestingRun(t)
}
