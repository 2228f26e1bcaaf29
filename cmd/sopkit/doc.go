// Command sopkit inspects SOP packages.
//
// Usage:
//
//	sopkit package.sop              # full report
//	sopkit package.sop --metadata   # package metadata only
//	sopkit package.sop --stats      # record statistics
//	sopkit package.sop --tables     # per-table breakdown
//	sopkit package.sop --json       # full report as JSON
//	sopkit package.sop --yaml       # full report as YAML
//	sopkit package.sop --debug      # raw data diagnostics
//
// When a package cannot be analyzed, sopkit prints the error followed by the
// raw data diagnostics and exits with status 1.
//
// Settings can also come from a sopkit.yaml file (see --config) or from SOPKIT_*
// environment variables, for example SOPKIT_DECODE_EXTENDED_STRATEGIES=true.
package main
