// Package notifications delivers operator alerts via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Each alert kind
// (job completed, job failed, restart recovery) can be toggled off
// individually. Alerts are best-effort; the workflow logs delivery failures and
// carries on.
package notifications
