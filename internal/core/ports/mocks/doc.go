// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that mirrors the real backend's contract
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//   - Call counters for asserting on side effects
//
// # Usage Example
//
//	func TestLinker(t *testing.T) {
//		docs := mocks.NewDocumentStore()
//		docs.AddDrug(domain.Drug{ID: "D1", Name: "Methamphetamine"})
//		graph := mocks.NewGraphStore()
//
//		l := linking.New(docs, graph, &logger)
//		// ... test linker behavior
//	}
//
// # Available Mocks
//
//   - DocumentStore: implements ports.DocumentStore
//   - GraphStore: implements ports.GraphStore
//   - ObjectStore: implements ports.ObjectStore
//   - Session: implements ports.Session
//   - Classifier: implements ports.Classifier
//   - ProgressReporter: implements ports.ProgressReporter and ports.ResultPublisher
package mocks
