package constants

import "time"

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	AppName            = "justdad"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/justdad"
	DefaultStorePath   = "~/.config/justdad/justdad.db"
	DefaultConfigFile  = "config.yaml"
	DefaultCalendar    = "calendar.ics"
	ConnectionEnvVar   = "JUSTDAD_DB_CONNECTION"
	Version            = "v0.1.0"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "justdad-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "justdad-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.justdad"
	TrayAppExecutable      = "justdad-tray"
	SecretHeader           = "X-JustDad-Secret"

	// Calendar constants
	CalendarProductID   = "-//julianstephens//justdad//EN"
	VisitIDProperty     = "X-JUSTDAD-VISIT-ID"
	CalendarAccessExt   = ".access"
	CalendarGranted     = "granted"
	CalendarDenied      = "denied"
	DefaultLeadMinutes  = 30
	DefaultSyncSchedule = "@every 15m"

	// Conflict Types
	ConflictInvalidTimeRange  ConflictType = "invalid_time_range"
	ConflictDuplicateVisitID  ConflictType = "duplicate_visit_id"
	ConflictOverlappingVisits ConflictType = "overlapping_visits"
	ConflictReminderInPast    ConflictType = "reminder_in_past"
	ConflictEmptyTitle        ConflictType = "empty_title"
)
