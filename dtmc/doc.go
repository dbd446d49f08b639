// Package dtmc builds the discrete-time Markov chain of a sliding hit/miss window and
// evaluates how likely the window is to stay admissible over a horizon.
//
// A state is the bit history of the last Window outcomes ('1' hit, '0' miss), oldest
// first. Histories with fewer than Hits ones are never materialized: they collapse into
// the absorbing Out state. The all-ones history is always index 0 and Out is always the
// last index, so the confidence over a horizon is 1 - P^h[0][Out].
package dtmc
