// Package config builds the explicit configuration unapt runs with.
//
// A Config is assembled from layers, lowest precedence first:
//
//  1. Defaults: the public file host and source repository.
//  2. An optional Lua file (config.lua) evaluated in a sandboxed gopher-lua
//     VM with the read-only "platform" table injected.
//  3. UNAPT_* environment variables (caarlos0/env).
//  4. Command-line flags.
//
// Layers 2 and 4 are merged with mergo, so zero values in them mean
// "unset". Environment variables are applied directly onto the merged
// struct and may therefore set a field back to zero.
//
// A config file looks like:
//
//	unapt = {
//	  file_host = "https://mirror.example.org/unapt",
//	  timeout   = 60,          -- seconds
//	  retries   = 2,
//	  log_level = platform.when(platform.is_termux, "debug"),
//	  source = {
//	    api  = "https://api.github.com/repos/example/unapt",
//	    dir  = "unapt",
//	    base = "main",
//	  },
//	}
//
// The sandbox removes os, io, debug and every code-loading function, so a
// config file can only compute values, never touch the system.
package config
