// Package diskguard pauses the stream before it can fill the disk.
//
// The guard compares free space on the output filesystem against a
// configured floor. The driver consults it at batch boundaries: a
// failing check moves the stream into its paused state, where it polls
// until space recovers. Probe errors are treated as zero free bytes, so
// a filesystem that cannot be read pauses the stream rather than being
// written to blind.
//
// A floor of zero disables the guard, which is the default: an endless
// digit stream is usually run by someone watching the disk themselves.
package diskguard
