// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
//
// An App owns one registry (classes, aliases, enums and converters installed
// by modules), reads the configured documents, and constructs every object
// of the configured element name from them.
package app
