// Package voteadmission implements the vote admission engine inside the
// community-core context.
//
// The module decides whether a cast vote is applied, flipped, or removed for
// a (user, comment, direction) triple, enforcing karma gates and the
// trailing-24h rate limit for low-karma voters. Score and likes aggregates
// are mutated only through admitted vote mutations. Business rules live in
// application/domain layers; infrastructure sits behind ports and adapters.
package voteadmission
