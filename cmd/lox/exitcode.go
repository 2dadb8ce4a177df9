package main

// Exit codes follow the BSD sysexits convention.
const (
	exitOK       = 0
	exitUsage    = 64 // EX_USAGE: bad command line
	exitDataErr  = 65 // EX_DATAERR: compile error or invalid image
	exitSoftware = 70 // EX_SOFTWARE: runtime error
	exitIOErr    = 74 // EX_IOERR: unreadable input or unwritable output
)
