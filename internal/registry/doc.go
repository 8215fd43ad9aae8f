// Package registry provides the central "glue" for the module system.
//
// A Registry bundles the process-wide tables the loader consults: the class
// catalog, the global alias table, enumeration metadata and custom value
// converters. Modules register their Go types into it at startup, before the
// first document is loaded, and the registry is validated so that aliases
// never point at classes the binary does not contain.
package registry
