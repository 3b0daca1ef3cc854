// Package model defines the Language Model Gateway abstraction: a uniform
// Invoke contract over provider SDKs, with three capability tiers (fast
// classification, deep reasoning, default execution) bundled in a Set.
// Provider adapters live in the openai and anthropic subpackages.
package model
