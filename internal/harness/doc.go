// Package harness runs snapping scenarios described in YAML and checks the
// outcome against assertions and golden snapshots.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	run_id: test-run-001        # optional, fixed run id
//	radius: 4                   # optional, engine default otherwise
//	min_length: 4               # optional
//	lines:
//	  - id: 1
//	    coords: [[0, 0], [10, 0]]
//	  - id: 2
//	    parts:                  # multipart input
//	      - [[12, 0], [22, 0]]
//	      - [[100, 100], [110, 100]]
//	assertions:
//	  - type: summary
//	    expect: { snapped_pairs: 1, deleted: 0 }
//	  - type: endpoint
//	    line: 2
//	    role: start
//	    point: [10, 0]
//	    status: snapped - done
//	  - type: deleted
//	    line: 3
//
// # Assertion Types
//
//   - summary: compares run counters (deleted, multipart_warnings,
//     snapped_pairs, neighborhoods, unresolved_neighborhoods, lines)
//   - endpoint: checks one endpoint's final coordinate and/or status
//   - deleted: checks a line did not survive the run
//   - coincident: checks two endpoints share one coordinate
//
// Every scenario runs against a fresh in-memory store with a fixed run id and
// a step clock, so the same file always produces the same snapshot.
package harness
