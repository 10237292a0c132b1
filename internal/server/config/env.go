package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envFile is the dotenv file picked up from the working directory.
var envFile = ".env"

// parseEnv loads envFile (when present, without overriding variables that are
// already set) and copies THREATSCOPE_* variables into config. Malformed
// numeric values panic, matching parseJson and parseFlags.
func parseEnv(config *Config) {
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	lookupString("THREATSCOPE_HTTP_ADDR", &config.EndpointAddrHTTP)
	lookupString("THREATSCOPE_GRPC_ADDR", &config.EndpointAddrGRPC)
	lookupString("THREATSCOPE_DATABASE_BACKEND", &config.DatabaseBackend)
	lookupString("THREATSCOPE_DATABASE_DSN", &config.DatabaseDSN)
	lookupString("THREATSCOPE_SECRET_KEY", &config.SecretKey)
	lookupString("THREATSCOPE_BLOB_BACKEND", &config.BlobBackend)
	lookupString("THREATSCOPE_UPLOAD_DIR", &config.UploadDir)
	lookupString("THREATSCOPE_S3_USER", &config.S3RootUser)
	lookupString("THREATSCOPE_S3_PASSWORD", &config.S3RootPassword)
	lookupString("THREATSCOPE_S3_BUCKET", &config.S3Bucket)
	lookupString("THREATSCOPE_S3_REGION", &config.S3Region)
	lookupString("THREATSCOPE_S3_ENDPOINT", &config.S3BaseEndpoint)
	lookupString("THREATSCOPE_LOG_LEVEL", &config.LogLevel)
	lookupString("THREATSCOPE_LOG_FORMAT", &config.LogFormat)

	if v, ok := os.LookupEnv("THREATSCOPE_TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v, ok := os.LookupEnv("THREATSCOPE_MAX_UPLOAD_MB"); ok {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadBytes = mb << 20
	}
	if v, ok := os.LookupEnv("THREATSCOPE_CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
