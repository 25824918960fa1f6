// Package service implements a single host lookup.
//
// Lookup drives a linear state machine:
//
//	Start -> KeyLoaded -> HostFetched -> NoVulns ------------------> Done
//	                                  \-> VulnsPresent -> KEVMatch ---> Done
//	                                                  \-> NoKEVMatch -> Done
//
// The host-intelligence service and the KEV catalog are reached through the
// HostLookup and FeedFetcher interfaces, so the flow can be tested without
// network access. A report is printed only once all data is known, a failed
// lookup prints nothing but the error.
//
// Invariants:
//   - The KEV catalog is fetched only when the host reports vulnerabilities.
//   - The known exploited list is the intersection of host identifiers and
//     catalog identifiers, in host order.
//   - The vulnerability list always holds every host identifier.
//   - Nothing is retried.
//
// BOMRepoUploader optionally publishes the CycloneDX form of a report.
package service
