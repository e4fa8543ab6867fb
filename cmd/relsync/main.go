// Command relsync is a thin CLI wrapper over the schema synchronizer (it
// has no query-builder command): it exists to give the teacher's CLI-facing
// dependencies (cobra, viper, fatih/color) a concrete home, not to
// reimplement migrato's migration-history/rollback ledger. See DESIGN.md.
package main

func main() {
	Execute()
}
