// Package common holds the configuration and logging setup shared by the bKV
// library and its command line interface.
//
// StoreConfig describes which engine to use and where its store lives. It is
// filled by the CLI from flags, environment variables (prefix BKV_) and .env files
// and passed to storage.OpenConfig.
//
// All packages log through dragonboats logger facade
// (github.com/lni/dragonboat/v4/logger). InitLoggers installs a factory that
// writes lines of the form
//
//	2025/01/01 12:00:00 INFO  | storage         | opened store at "./data"
//
// and sets the level of every bKV logger.
package common
