// Miarh is a TLS-terminating edge gateway for small web applications.
//
// It accepts HTTPS connections, serves static assets and ACME challenge
// tokens from disk, and forwards every other request to the virtual host's
// backend over a Unix-domain socket. The plaintext listener only redirects
// to HTTPS.
//
// Usage:
//
//	# Start the gateway with miarh.yaml from the working directory
//	miarh run
//
//	# Start with a custom configuration file
//	miarh run --config /etc/miarh/miarh.yaml
//
//	# Check configuration and certificate coverage
//	miarh config check --output json
//
//	# Show version information
//	miarh version
package main

func main() {
	Execute()
}
