/*
Package meta defines the metadata-object surface between the lifecycle
core and the on-media tree service.

An Object is one resolved tree node: reference counted, optionally
bound to an owning PFS, and optionally linked on that PFS's eviction
list. The Store interface is the minimal media contract the core
needs — volume root access, key lookup, key-range scans and lookup by
object number. Stores create objects with one base reference of their
own and hand an additional reference to every lookup result; the core
marks objects for release as it lets go of them, and the store's
release hook fires on the last drop so allocation counters stay exact.

DirHash produces the directory-entry hash key a name is filed under.
Distinct names can share a hash window, so consumers confirm matches
by literal comparison.
*/
package meta
