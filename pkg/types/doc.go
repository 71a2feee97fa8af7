// Package types defines the Store and Table interfaces, the CRM entity types
// (Company, Person, Opportunity), and the standard errors shared by every
// storage backend, the HTTP surface, and the pipeline engine.
package types
