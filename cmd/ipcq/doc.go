// Package main hosts the ipcq CLI entrypoint and command graph.
//
// The Cobra command tree maps terminal invocations onto the queue facade:
// sending and receiving on POSIX and System V queues, inspecting and
// removing them, a throughput benchmark, and configuration scaffolding.
// Configuration resolution and logging setup live in commandContext so
// subcommands stay thin.
//
// Would-block outcomes (queue full, queue empty, timeouts) exit with status
// 2; every other failure exits with status 1.
package main
