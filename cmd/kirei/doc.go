// Command kirei is the command-line entry point for the kirei file
// organization daemon and its one-shot utilities.
package main
