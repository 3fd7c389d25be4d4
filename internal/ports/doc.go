// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Ledger]: Persisted address to last-sent timestamp map with cooldown expiry
//   - [Queue]: Persisted ordered list of discovered, not yet sent addresses
//   - [PostSource]: Produces raw post text, cycle by cycle
//   - [MailTransport]: Delivers one message to one address
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (JSON files, SMTP, zerolog, etc.).
package ports
