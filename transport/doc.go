// Package transport provides Transport implementations for the notification
// dispatcher: an HTTP relay that hands each message to a mail or push gateway,
// and a log-only transport for development.
package transport
