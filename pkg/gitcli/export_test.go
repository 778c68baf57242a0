package gitcli

// ProbeClassifyTransient exposes transient classification for tests.
func ProbeClassifyTransient(exitCode int, cause error) bool {
	return classifyTransient(exitCode, cause)
}

// ProbeNewCommandError exposes command error construction for tests.
func ProbeNewCommandError(args []string, exitCode int, stderr string, cause error) *CommandError {
	return newCommandError(args, exitCode, []byte(stderr), cause)
}
