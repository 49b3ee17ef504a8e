// Package daemonctl drives the blinkcode daemon process from the CLI: it
// launches detached daemons, resumes or pauses processing over IPC,
// terminates running processes, and assembles status snapshots that fall
// back to preflight checks when the daemon is offline.
package daemonctl
