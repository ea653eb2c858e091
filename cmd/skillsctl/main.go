// Command skillsctl is a reference CLI over the agent skills runtime: list
// the catalog, render a system-prompt snippet, validate a directory tree of
// SKILL.md files, or run one script outside of an agent session.
package main

func main() {
	Execute()
}
