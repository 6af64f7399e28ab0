// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package cmd holds the cobra command tree: serve, simulate, clear-ratings
// and export-ratings.
package cmd
