package storage

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"ragbackend/config"
)

// ErrNotConnected is returned when the connector has no live client
var ErrNotConnected = errors.New("not connected to MongoDB")

// ClassifyConnectionError provides specific remediation hints based on the
// type of MongoDB connection failure. Credentials in uri are never echoed.
func ClassifyConnectionError(err error, uri string) string {
	if err == nil {
		return ""
	}

	addr := config.RedactURI(uri)
	errStr := err.Error()

	if containsIgnoreCase(errStr, "authentication failed") || containsIgnoreCase(errStr, "auth error") ||
		containsIgnoreCase(errStr, "unable to authenticate") {
		return fmt.Sprintf("Authentication failed for MongoDB at %s.\n"+
			"  Remediation:\n"+
			"  - Verify the username and password in MONGODB_URI\n"+
			"  - Check the authSource option matches the database holding the user", addr)
	}

	if containsIgnoreCase(errStr, "no such host") || containsIgnoreCase(errStr, "lookup") {
		return fmt.Sprintf("Cannot resolve hostname in MongoDB URI %s.\n"+
			"  Remediation:\n"+
			"  - Verify the hostname is correct\n"+
			"  - Check DNS configuration (mongodb+srv:// requires SRV records)\n"+
			"  - Try using an IP address (127.0.0.1) instead of a hostname", addr)
	}

	if containsIgnoreCase(errStr, "connection refused") || containsIgnoreCase(errStr, "actively refused") {
		return fmt.Sprintf("Connection refused by MongoDB at %s.\n"+
			"  This usually means MongoDB is not running.\n"+
			"  Remediation:\n"+
			"  - Start MongoDB: docker run -d -p 27017:27017 mongo:7\n"+
			"  - Verify the host and port in MONGODB_URI", addr)
	}

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) ||
		containsIgnoreCase(errStr, "server selection timeout") ||
		containsIgnoreCase(errStr, "deadline exceeded") ||
		containsIgnoreCase(errStr, "timed out") {
		return fmt.Sprintf("Connection to MongoDB at %s timed out.\n"+
			"  Possible causes:\n"+
			"  - MongoDB is starting up or overloaded\n"+
			"  - Network latency or a firewall blocking the connection\n"+
			"  - Atlas IP access list does not include this host", addr)
	}

	return fmt.Sprintf("Failed to connect to MongoDB at %s: %v\n"+
		"  Remediation:\n"+
		"  - Ensure MongoDB is running and accessible\n"+
		"  - Check the MONGODB_URI setting\n"+
		"  - Verify network connectivity", addr, err)
}

// containsIgnoreCase checks if a string contains a substring (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
