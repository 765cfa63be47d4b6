// Package commentlifecycle implements the comment state machine inside the
// community-core context: creation with ban and anonymization rules, edits,
// author and moderator soft-deletes, and the distinguish toggle. All
// mutations pass through the authorization gate in domain/services;
// moderator deletions enqueue a notification to the original author through
// an outbox drained by a worker.
package commentlifecycle
