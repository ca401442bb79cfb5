// Package models defines the core domain records of the group lifecycle engine.
//
// # Records
//
//   - Group: a named collection of users who can view content shared into it
//   - GroupMember: one membership period of a user in a group
//   - GroupSharedContent: one share of a photo or album into a group
//   - User: identity metadata, used for response projection only
//
// # Soft deletion
//
// Nothing is ever physically removed. Each record keeps nullable timestamps
// (DeletedAt, LeftAt, RemovedAt) and every derived flag is a pure function of
// those timestamps and an explicit "now". Callers that want a single value
// to switch on use GroupStateOf and MemberStateOf.
//
// Relationships are expressed by ID strings, never by pointers.
package models
