// Package testing provides standardised tests and benchmarks for
// implementations of the boundary.Boundary protocol.
//
// The package contains:
//   - testing: A test suite validating the protocol contract (handle lifecycle,
//     the BufferTooSmall retry discipline, session visibility, diagnostic results)
//   - benchmark: Performance tests for write sessions and full scans
//
// Example usage:
//
//	// Creating a factory returning a boundary and a fresh store path
//	factory := func(t testing.TB) (boundary.Boundary, string) {
//		return boundary.NewHost(NewMyEngine()), t.TempDir()
//	}
//
//	// Running the standard test suite
//	bdtesting.RunBoundaryTests(t, "MyEngine", factory)
//
//	// Running performance benchmarks
//	bdtesting.RunBoundaryBenchmarks(b, "MyEngine", factory)
package testing
