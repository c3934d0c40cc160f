// Package core defines the shared language of leapdq.
//
// This package contains:
//   - Rule definitions (Rule, RuleType, Severity)
//   - Evaluation output (Result, Report, Summary)
//   - Run and connection configuration (Settings, ConnectionConfig)
//   - The error taxonomy (ConnectionError, QueryError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
