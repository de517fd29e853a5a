// Package parallel runs independent jobs with bounded concurrency.
//
// The alert dispatcher uses a Pool to deliver one batch to every sink at
// once, so a slow SMTP server does not hold up a Telegram message.
package parallel
