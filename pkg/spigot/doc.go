// Package spigot generates the decimal digits of pi one at a time, with no
// precision bound fixed in advance.
//
// The generator is a streaming (unbounded) spigot: it keeps six integer
// terms (q, r, t, k, n, l) of a linear fractional transformation and
// interleaves two moves, consuming another term of the underlying series
// and emitting the candidate digit once it is provably stable. The terms
// grow without bound, so they are held as arbitrary-precision integers.
//
// The integer part of pi is consumed during construction; the engine emits
// fractional digits only. Snapshots taken with State are self-contained and
// deterministic: restoring one resumes the exact digit sequence, which is
// what makes crash recovery byte-exact.
package spigot
