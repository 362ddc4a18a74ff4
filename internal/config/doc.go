// Package config provides configuration for the storekit CLI.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults
//  2. storekit.json in the working directory, if present
//  3. STOREKIT_* environment variables
//
// # Configuration File Structure
//
//	{
//	  "addr": "localhost:7070",
//	  "logLevel": "info",
//	  "logFormat": "json",
//	  "metricsNamespace": "myapp",
//	  "strictKeys": true,
//	  "debug": false
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Addr)
package config
