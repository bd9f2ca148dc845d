// Package fsutil collects the filesystem-level helpers the control plane
// and facades need but the queue engine itself does not: directory
// enumeration, recursive copy, advisory locking, atomic replacement, path
// expansion, and await-exists polling. None of it is specific to the queue
// domain; it is kept separate from package queue so the engine has zero
// filesystem dependencies beyond the KVS directory itself.
package fsutil
