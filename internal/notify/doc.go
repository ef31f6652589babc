// Package notify delivers fired reminders to the caregiver.
//
// Delivery is send-only Telegram: the bot never polls for updates. Every
// fired reminder passes through the dedupe gate first, so a reminder reaches
// the caregiver at most once per local calendar day even when the process
// restarts between the schedule rebuild and the fire instant. Outcomes are
// appended to the delivery log when storage is configured.
package notify
