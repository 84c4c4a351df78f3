// Package protocol owns the apm wire contract.
//
// Ownership boundary:
// - validated characters and the sized string family
// - tracking parts and message bodies
// - discriminant dispatch for the message envelope
//
// Wire layout, MSB first, integers big-endian:
//
//	sized string  [pad bits][count bits] char*count
//	message       discriminant(1) body
//	apm_v1 body   realm application application_hash action status
//	              duration(8) parts_count(1) part*parts_count
//	part          name hits(4) total_duration(8)
package protocol
