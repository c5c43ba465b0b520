// Package store provides the SQLite record store that Lens queries run
// against.
//
// Each entity is a table whose columns are the entity's fields. The
// lens_entities table keeps the registry of defined schemas so a reopened
// database knows its entities without external configuration.
//
// # Deterministic Results
//
// Every query compiled by internal/querysql ends with ORDER BY rowid ASC,
// so rows with equal sort keys come back in insertion order.
//
// # Matching
//
// CONTAINS[cd] is evaluated by the lens_fold SQL function, registered on
// every connection through the sqlite3_lens driver. It folds case and strips
// diacritics on both sides before instr() compares them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
