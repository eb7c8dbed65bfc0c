// SPDX-License-Identifier: MIT

// Package config loads engine settings from YAML and environment variables
// and turns them into recursion.Options, a value store and a logger.
//
// A minimal file:
//
//	engine:
//	  direction: minimize
//	  discount: 1
//	  workers: 8
//	  state_sampling:
//	    scheme: jensen
//	    max_sample_size: 100
//	    reduction_factor: 2
//	  store:
//	    backend: badger
//	    path: /var/lib/sdp/values
//	  log_level: info
//
// Environment variables prefixed with SDP_ override file values.
package config
