// Package config loads chordpack's configuration.
//
// Configuration is assembled from three layers, lowest priority first:
//
//  1. Built-in defaults
//  2. A TOML file (usually chordpack.toml)
//  3. CHORDPACK_* environment variables
//
// Layers are plain maps merged with DeepMerge and the result is decoded
// into a typed Config. Unknown keys are rejected.
//
// Environment variables name a section and a key joined by underscores:
//
//	CHORDPACK_LOG_LEVEL=debug
//	CHORDPACK_KEYS_PLATFORM=mac
//	CHORDPACK_KEYS_DEFAULT_ARGUMENT=8
//	CHORDPACK_KEYS_KEYMAPS=keys/global.toml:keys/extra.toml
//	CHORDPACK_CODEC_CONVERSION=fail
//
// List values are separated by the OS path list separator.
package config
