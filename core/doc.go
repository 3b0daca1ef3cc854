// Package core contains the shared primitives of the Solara runtime: the
// typed Event stream emitted during request execution, the conversation
// Message model exchanged with language model gateways, and the Transcript
// holding the engine's conversational context.
package core
