/*
Package core implements the device and filesystem-instance lifecycle of
hivefs: opening backing devices, tracking the pseudo-filesystem (PFS)
instances they carry, attaching and detaching mounts, and reclaiming
everything in the right order when the last dependent goes away.

# Architecture

	┌──────────────────────────────────────────────┐
	│                 Registry                     │
	│   devices[]      pfsList[]      spList[]     │
	└──────┬───────────────┬──────────────┬────────┘
	       │               │              │
	┌──────▼──────┐  ┌─────▼─────┐  ┌─────▼─────┐
	│   Device    │  │    PFS    │  │ super-root│
	│ volume set  │◄─┤ replica   │  │    PFS    │
	│ media store │  │ slots 0..7│  │ (per dev) │
	│ I/O cache   │  └─────┬─────┘  └───────────┘
	└─────────────┘        │
	                 ┌─────▼─────┐
	                 │ MountPoint │
	                 └────────────┘

The Registry owns three tables behind one lock: open devices, cluster
PFS instances and per-device super-root instances. A Device is created
on first mount of unopened media and holds the assembled volume set,
the media store and the cached-I/O-unit bookkeeping. A PFS aggregates
up to MaxCluster replica slots, each binding one resolved metadata
object on one device; a MountPoint is one attachment of a PFS.

# Lifecycle

Mount resolves or opens the device, bootstraps its super-root,
pre-populates the PFS table from the labels found beneath it, resolves
the requested label, binds it into a PFS and attaches. Unmount flushes
the instance's working state, detaches, and tears down every device
whose dependent-mount count reached zero; teardown strips that
device's replica bindings everywhere, which can cascade. After the
last device closes the runtime counters must read zero; a nonzero
residue is reported as an inconsistency rather than ignored.

# Locking

The registry lock is ordered above everything else and is held
exclusively for the whole of any mount, unmount, allocation or scan.
Each PFS has a structural lock below it and a separate LRU-linkage
lock at the bottom; references gathered while holding the LRU lock are
dropped only after it is released.
*/
package core
