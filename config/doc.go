// Package config loads depprobe settings.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML file, and environment variables (a .env file in the working
// directory is loaded first when present). Connection descriptors may use
// ${VAR} expansion and secretref:file:<path> references.
package config
