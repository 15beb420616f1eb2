// Package main provides the entry point of seqvault, a dataset registry that
// keeps dataset metadata in a relational database and content in an object
// store. It serves a REST API built on Fiber and a command line to manage
// datasets, their lifecycle (delete, undelete, purge) and the role based
// manage and access grants of each dataset.
package main
