// Package notifications delivers pipeline and monitor events to operators.
//
// Events go to ntfy (configured via notifications.ntfy_topic) and/or an SQS
// queue (notifications.sqs_queue_url). When neither is configured a noop
// service is returned so callers never need nil checks.
package notifications
