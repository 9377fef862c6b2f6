// Package version records the module version advertised in the agent card.
package version

// Current is the semantic version of this agent, without a "v" prefix.
const Current = "1.0.0"
