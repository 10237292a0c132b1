package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   REST bind address (e.g. ":5000")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-n string   database backend: postgres | sqlite
//	-d string   database DSN
//	-s string   token HMAC secret key
//	-t int      token validity, minutes
//	-k string   blob backend: fs | s3
//	-f string   upload directory for the fs backend
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-m int      max upload size, MiB
//	-o string   comma-separated CORS origins
//	-l string   log level
//	-j string   log format: json | console
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-n", "-d", "-s", "-t", "-k", "-f", "-u", "-p", "-b", "-r", "-e", "-m", "-o", "-l", "-j",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "REST address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseBackend, "n", config.DatabaseBackend, "database backend (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	ttl := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend (fs|s3)")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	maxMB := fs.Int64("m", config.MaxUploadBytes>>20, "max upload size (in MiB)")
	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "CORS origins, comma separated")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "j", config.LogFormat, "log format (json|console)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// unit-converted values only override when the flag was given, so a
	// sub-minute TTL or a byte-exact size from JSON survives a flag-less run
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*ttl) * time.Minute
		case "m":
			config.MaxUploadBytes = *maxMB << 20
		case "o":
			config.CORSOrigins = splitList(*origins)
		}
	})
}
