// Package retention prunes evidence records by age and by count, optionally
// archiving them as JSON first, on a cron schedule.
//
// Common schedules:
//
//	"0 3 * * *"    daily at 3 AM
//	"0 */6 * * *"  every 6 hours
//	"@hourly"      every hour
package retention
