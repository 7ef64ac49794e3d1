// Package build runs a complete site build: it loads the page tree from a
// template root, prepares the output directory and renders every page.
//
// All execution paths (CLI, tests) route through Service.Run.
package build
