// Copyright 2016, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Environment variables
const (
	DATABASE_URL         = "DATABASE_URL"
	PORT                 = "PORT"
	S2_TARGET_RESOLUTION = "S2_TARGET_RESOLUTION"
	S2_FETCH_WORKERS     = "S2_FETCH_WORKERS"
	S2_LOG_LEVEL         = "S2_LOG_LEVEL"
	S2_LOG_FORMAT        = "S2_LOG_FORMAT"
	S2_S3_ENDPOINT       = "S2_S3_ENDPOINT"
	S2_S3_REGION         = "S2_S3_REGION"
	S2_S3_ACCESS_KEY     = "S2_S3_ACCESS_KEY"
	S2_S3_SECRET_KEY     = "S2_S3_SECRET_KEY"
)

const defaultPort = "8080"

// GetDatabaseURL returns a string for the DATABASE_URL environment variable
func GetDatabaseURL() string {
	dbURL, ok := os.LookupEnv(DATABASE_URL)
	if !ok {
		LogAlert(&BasicLogContext{}, "Did not get a database URL from the environment. The product catalog will not be available.")
	}
	return dbURL
}

// GetPortStr returns the listen address built from the PORT environment variable
func GetPortStr() string {
	if port, ok := os.LookupEnv(PORT); ok {
		return ":" + port
	}
	return ":" + defaultPort
}

// GetTargetResolution returns the S2_TARGET_RESOLUTION environment variable,
// or the fallback when it is absent or not a positive integer
func GetTargetResolution(fallback int) int {
	return getPositiveInt(S2_TARGET_RESOLUTION, fallback)
}

// GetFetchWorkers returns the size of the band fetch worker pool from
// S2_FETCH_WORKERS, defaulting to the number of CPUs
func GetFetchWorkers() int {
	return getPositiveInt(S2_FETCH_WORKERS, runtime.NumCPU())
}

// GetLogLevel returns a string for the S2_LOG_LEVEL environment variable
func GetLogLevel() string {
	return os.Getenv(S2_LOG_LEVEL)
}

// GetLogFormat returns a string for the S2_LOG_FORMAT environment variable
func GetLogFormat() string {
	return os.Getenv(S2_LOG_FORMAT)
}

// GetS3Endpoint returns a custom S3 endpoint (MinIO, LocalStack), or an empty
// string to use AWS
func GetS3Endpoint() string {
	return os.Getenv(S2_S3_ENDPOINT)
}

// GetS3Region returns the S2_S3_REGION environment variable. Sentinel-2 open
// data lives in eu-central-1, which is the default.
func GetS3Region() string {
	if region, ok := os.LookupEnv(S2_S3_REGION); ok && region != "" {
		return region
	}
	return "eu-central-1"
}

// GetS3Credentials returns a static key pair for S3-compatible stores. Both are
// empty when the default AWS credential chain should be used.
func GetS3Credentials() (accessKey string, secretKey string) {
	accessKey = os.Getenv(S2_S3_ACCESS_KEY)
	secretKey = os.Getenv(S2_S3_SECRET_KEY)
	if (accessKey == "") != (secretKey == "") {
		LogAlert(&BasicLogContext{}, "Only one of S2_S3_ACCESS_KEY and S2_S3_SECRET_KEY is set; falling back to the default credential chain.")
		return "", ""
	}
	return accessKey, secretKey
}

func getPositiveInt(name string, fallback int) int {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		LogAlert(&BasicLogContext{}, fmt.Sprintf("Ignoring %s=%q; expected a positive integer. Using %d.", name, raw, fallback))
		return fallback
	}
	return value
}
