// Package logx configures chartjobs' structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Human-readable wall-clock stamps (Stamp) shared with the renderers
package logx
