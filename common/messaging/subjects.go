// Package messaging defines standard subject names for the HR events message bus.
package messaging

// Subject constants follow the pattern: {domain}.{kind}.{name}
const (
	SubjectJobsPrefix = "hrevents.jobs"

	SubjectJobsSync      = "hrevents.jobs.sync"      // Slack directory -> user_meta sync
	SubjectJobsReminders = "hrevents.jobs.reminders" // Birthday and anniversary DMs
)

// Queue group names for load-balanced consumers.
const (
	QueueShort = "short" // Short-running jobs, one worker consumes each message
)

// Header names carried on job messages.
const (
	HeaderJobID   = "Hrevents-Job-Id"
	HeaderJobName = "Hrevents-Job-Name"
	HeaderQueue   = "Hrevents-Queue"
)

// JobSubject returns the subject a named job kind is published to.
// Example: JobSubject("sync") == "hrevents.jobs.sync"
func JobSubject(kind string) string {
	return SubjectJobsPrefix + "." + kind
}
