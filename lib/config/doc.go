// Copyright 2026 The Sum Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for sum-embedding
// components.
//
// Configuration is loaded from a single file specified by either the
// SUM_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports a production section that overrides
// base values when [Config].Environment is "production".
//
// Variable expansion is performed on the checkpoint root after
// loading: ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Checkpoint and Retry sections
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.PathForStream] -- a ready-made PathFunc for the manager
//
// This package depends on no other sum packages.
package config
