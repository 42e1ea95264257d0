// Package reembed recomputes the stored embedding of every profile, typically
// after the embedding model changes.
//
// Profiles are processed in storage order in fixed-size batches. Each batch is
// embedded with retries and exponential backoff, normalized to unit length and
// written back atomically. When a checkpoint repository is supplied the last
// completed profile id is recorded so an interrupted run can resume.
package reembed
