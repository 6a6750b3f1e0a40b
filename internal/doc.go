// Package internal contains the implementation packages of docnav.
//
// # Package Organization
//
//   - navigation: the navigation tree model, its codecs and validation
//   - validation: link classification used by the navigation linter
//   - sidebar: route extraction, focus and per-route sidebar generation
//   - loader: reading navigation files from disk
//   - output: JSON, YAML and TypeScript encodings of a sidebar config
//   - pages: cross-checking links against the Vocs pages directory
//   - build: the load, generate and write pipeline with metrics
//   - watcher: debounced file watching
//   - server: the preview server with live reload
//   - config: configuration loading and validation
//   - errors: structured errors shared by every package
//   - logging: the structured logger
//
// # Data Flow
//
// The loader decodes the navigation file into a tree. The build pipeline
// hands the tree to the sidebar generator and writes the resulting config
// through the output package. The watch command and the preview server
// rerun the pipeline when the watcher reports a change; the server
// broadcasts the outcome to connected browsers.
//
// # Testing Strategy
//
//   - Table-driven unit tests with testify in every package
//   - Property tests with gopter behind the "property" build tag
//   - Goroutine leak checks with goleak for the watcher
//   - End-to-end command tests that run the cobra tree in a temp directory
package internal
