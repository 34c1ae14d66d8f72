// internal/app/system/limits/limits.go
package limits

// Request body size limits for JSON endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxRecordBody bounds create and update requests for feature records.
	MaxRecordBody = 64 << 10 // 64 KB

	// MaxAuthBody bounds login and signup submissions.
	MaxAuthBody = 8 << 10 // 8 KB

	// MaxProfileBody bounds settings and admin profile updates.
	MaxProfileBody = 16 << 10 // 16 KB
)
