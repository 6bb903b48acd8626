// Package service provides the domain services of TokRelay.
//
// Services hold the business rules and orchestrate the domain models. They
// declare interfaces for their storage and transport collaborators so that
// the server can inject memory or Badger repositories and a real or dry-run
// push sender.
//
// This package contains:
//
//   - TokenService: token issuance, validation, usage accounting, revocation
//   - CooldownLimiter: per-caller cooldown gate
//   - CollectService: report intake behind a token
//   - Dispatcher: asynchronous worker pool that formats and delivers reports
package service
