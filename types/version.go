package types

// Version is the canonical project version reported by the CLI.
// The registry document carries its own format version, bumped only on
// incompatible schema changes.
const Version = "0.3.0"
