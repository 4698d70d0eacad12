package logging

import (
	"fmt"
	"strings"
)

// GenerateLogrotateConfig creates a logrotate stanza covering the given log files.
// Files are only appended to and reopened on every run, so copytruncate is not needed.
func GenerateLogrotateConfig(paths ...string) string {
	return fmt.Sprintf(`# Logrotate configuration for hibernate-retry
# Install: sudo cp this file to /etc/logrotate.d/hibernate-retry

%s {
    # Rotate weekly, hibernation is infrequent
    weekly

    # Keep 8 weeks of history
    rotate 8

    # Compress old logs
    compress
    delaycompress

    # Don't error if log is missing
    missingok

    # Don't rotate empty logs
    notifempty

    create 0640 root root
}
`, strings.Join(paths, " "))
}
