// Package checker evaluates observed HTTP response headers against a
// security-header policy.
//
// Architecture overview:
//
//   - FindHeader matches policy headers against the observed set, ignoring case.
//   - Validators classify each present header as PASS, WARN or FAIL. Exact and
//     enumerated values are compared literally; Strict-Transport-Security,
//     Content-Security-Policy and Permissions-Policy have their own validators.
//   - Evaluator.Evaluate folds the policy rules into an immutable
//     ValidationResult with score, grade, findings and recommendations.
//   - Runner fetches many targets through a HeaderSource with bounded
//     concurrency and a global rate limit, invoking an AuditFunc per target.
//
// Evaluation performs no I/O and holds no shared mutable state, so one
// Evaluator can serve any number of goroutines.
package checker
