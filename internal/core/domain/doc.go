// Package domain defines the core domain models for TokRelay.
//
// Domain models are plain values without IO dependencies:
//
//   - Token: collection token issued to an owner (push destination)
//   - Report: payload submitted against a token, with attachments
//   - DeliveryState: lifecycle of a report from receipt to delivery
//   - Errors: structured domain errors with stable codes
package domain
