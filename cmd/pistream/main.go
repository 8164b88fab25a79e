package main

// pistream generates the decimal digits of π with an unbounded spigot and
// streams them to a plain text file, checkpointing as it goes so an
// interrupted run resumes byte-identically.
func main() {
	Execute()
}
