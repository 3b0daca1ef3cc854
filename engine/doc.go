// Package engine contains the execution engine that turns one request into
// an ordered stream of events terminating in exactly one final answer or
// error. A run moves through a fixed pipeline: journal the input, recall
// memory, classify thinking depth, plan, execute each step through the
// retry/critique state machine, synthesize the response, and in deep mode
// persist a memory summary.
//
// The engine owns a single piece of mutable state, the conversational
// transcript, which is reset wholesale between sessions. Everything else it
// touches (memory, logbook, tool registry) is append-only or externally
// owned. Every non-fatal failure degrades to a coherent answer; only a
// missing model configuration aborts a run with a terminal error event.
package engine
