// Package domain contains the core domain entities and value objects for mailship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (file system, SMTP, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Address]: A recruiter contact address, lower-cased at the extraction boundary
//   - [LedgerEntry]: When an address was last emailed
//   - [Template]: Subject, body and attachment for one run
//   - [Message]: A template rendered for a single recipient
//   - [ScanResult], [DispatchResult], [RunReport]: Per-phase outcomes
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
