// Package history keeps a SQLite ledger of streaming sessions.
//
// Every process invocation is one session: when it started, which
// logical run it belonged to, the digit range it covered, and how it
// ended. The `pistream history` command reads this ledger; the driver
// writes it through a Recorder, which never lets a ledger failure
// interfere with digit production.
//
// Sessions that die without closing their row are swept to an
// "interrupted" outcome the next time a session starts on the same
// output directory.
package history
