// Package rje drives remote job entry sessions over a BSC link.
//
// A [Session] runs one of two top-level protocols against the host spooling
// service:
//
//   - Submit sends a job deck: line bid, sign-on card, job-deck marker card,
//     a submission notice, one 80-column card per deck line and a sign-off card
//     ending the transmission with EOT.
//   - Retrieve receives job output: print records are formatted through the
//     carriage-control tape and written to the print sink; once the host selects
//     the punch component, card images are written to the punch sink.
//
// Malformed print records and unknown carriage-control codes are logged and
// skipped. Transport failures, unexpected control sequences and sink write
// failures abort the session.
package rje
