package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/astepanovs/gatehouse/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-w string   webhook shared secret
//	-r string   protected branch refs, comma-separated
//	-x string   deployment command (run through sh -c)
//	-o string   deployment working directory
//	-t int      deployment timeout, seconds
//	-v int      access token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name (empty disables the log archive)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-w", "-r", "-x", "-o", "-t", "-v", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.WebhookSecret, "w", config.WebhookSecret, "webhook shared secret")

	branches := fs.String("r", strings.Join(config.ProtectedBranches, ","), "protected branch refs (comma-separated)")

	fs.StringVar(&config.DeployCommand, "x", config.DeployCommand, "deployment command")
	fs.StringVar(&config.DeployWorkDir, "o", config.DeployWorkDir, "deployment working directory")

	deployTimeout := fs.Int("t", int(config.DeployTimeout.Seconds()), "deploy_timeout (in seconds)")
	accessTokenValidityDuration := fs.Int("v", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ProtectedBranches = splitBranches(*branches)
	config.DeployTimeout = time.Duration(*deployTimeout) * time.Second
	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}

func splitBranches(s string) []string {
	var branches []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			branches = append(branches, b)
		}
	}
	return branches
}
