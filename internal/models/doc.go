// Package models defines the core domain models for Halaqa Save.
//
// # Records
//
// The ledger persists three kinds of records:
//   - Group: a savings circle with a fixed number of payout slots
//   - Membership: the binding of one User to one slot of one Group
//   - CyclePayment: one member's contribution for one cycle
//
// Users are registered accounts; a member is always a User.
//
// # Remote vs. display groups
//
// RemoteGroup is the authoritative shape exchanged with the ledger: it only reports
// which slot numbers are still free. Group is the display projection rebuilt from a
// RemoteGroup, with a materialized slot table. A Group is disposable and is recomputed
// whenever the authoritative record changes.
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships between records use ID strings
// 2. **Tagged enums**: lifecycle states are string-backed types with exhaustive switches
// 3. **Unix seconds**: timestamps are stored as int64 Unix seconds
package models
