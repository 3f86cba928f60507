// Package domcheck provides a CLI-based batch checker for domain name
// availability. It sends one request at a time to a third-party availability
// API, keeps within the provider's rate limit, retries throttled and
// transient failures, and interprets the provider's JSON response.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., sqlite/, http/, ratelimit/).
package domcheck
