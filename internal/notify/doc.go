// Package notify turns task alert offsets into delivered reminders.
//
// An alert fires at Due minus one of the task's offsets. A Dispatcher
// polls a task source on an interval and hands every alert whose instant
// fell inside the elapsed interval to every configured Sink at once. Delivery is
// at most once per process: instants before the first tick are never
// sent, and a sink failure is logged rather than retried.
package notify
