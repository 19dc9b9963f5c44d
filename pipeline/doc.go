// Package pipeline runs the two-unit split transform.
//
// A producer and a consumer share one output region. The producer folds
// phase k of the input into the output, leaving digit markers at the head
// of each run, and hands the phase off. The consumer, which only touches a
// phase after its handoff, expands those markers in place while the
// producer moves on to phase k+1. Handoffs are closed-loop: the producer
// rings the consumer's relay and blocks until it echoes, and the relay
// advances a counting barrier the consumer polls before touching a phase.
//
// The final bytes never depend on the interleaving: they equal
// transform.Rules.Reference applied to the whole input.
package pipeline
